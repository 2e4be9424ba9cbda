package service

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageExtraction Stage = "extraction"
	StageChunking   Stage = "chunking"
	StageIndexing   Stage = "indexing"
	StageGeneration Stage = "generation"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is busy with another request")
	ErrNotReady        = errors.New("no document has been processed yet")
	ErrInvalidBackend  = errors.New("unknown vector store backend")
	ErrInvalidFile     = errors.New("uploaded file is not a PDF")
	ErrEmptyQuestion   = errors.New("question is empty")
)

// StageError tells which pipeline stage failed.
type StageError struct {
	Stage   Stage
	Backend string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageError(stage Stage, backend string, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Backend: backend, Err: err}
}

// StageOf returns the failed stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
