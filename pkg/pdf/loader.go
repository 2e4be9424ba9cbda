package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"chat-with-pdf-be/pkg/store"

	lpdf "github.com/ledongthuc/pdf"
)

var (
	// ErrExtraction matches every *ExtractionError via errors.Is.
	ErrExtraction = errors.New("pdf extraction failed")
	ErrNoText     = errors.New("pdf contains no extractable text")
)

// ExtractionError reports why a PDF could not be turned into text.
// Page is 1-based, 0 when the failure is not tied to a page.
type ExtractionError struct {
	Source string
	Page   int
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extract %q page %d: %v", e.Source, e.Page, e.Err)
	}
	return fmt.Sprintf("extract %q: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// Load reads a PDF and returns its text as a single document, pages
// concatenated in order. Pages without a content stream contribute nothing.
func Load(r io.ReaderAt, size int64, source string) (doc store.Document, err error) {
	defer func() {
		// the parser panics on some malformed inputs
		if rec := recover(); rec != nil {
			doc = store.Document{}
			err = &ExtractionError{Source: source, Err: fmt.Errorf("parser panic: %v", rec)}
		}
	}()

	reader, err := lpdf.NewReader(r, size)
	if err != nil {
		return store.Document{}, &ExtractionError{Source: source, Err: err}
	}

	numPages := reader.NumPage()
	var text strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() || page.V.Key("Contents").IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return store.Document{}, &ExtractionError{Source: source, Page: i, Err: err}
		}
		text.WriteString(pageText)
	}

	content := text.String()
	if strings.TrimSpace(content) == "" {
		return store.Document{}, &ExtractionError{Source: source, Err: ErrNoText}
	}

	return store.Document{
		Content: content,
		Metadata: map[string]interface{}{
			store.MetaSource:    source,
			store.MetaPageCount: numPages,
		},
	}, nil
}

func LoadBytes(data []byte, source string) (store.Document, error) {
	return Load(bytes.NewReader(data), int64(len(data)), source)
}
