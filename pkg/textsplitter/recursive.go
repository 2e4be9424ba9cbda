package textsplitter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"chat-with-pdf-be/pkg/store"

	"github.com/google/uuid"
)

var ErrInvalidOptions = errors.New("invalid splitter options")

// DefaultSeparators goes from paragraph to line to word to single character.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveCharacter splits text on the coarsest separator that occurs in it,
// merges the pieces back into chunks of at most ChunkSize characters, and
// recurses with finer separators into pieces that are still too large.
// Consecutive chunks built from the same run of pieces share up to
// ChunkOverlap characters. Separators stay attached to the end of the piece
// they close, so every chunk is a contiguous substring of the input.
type RecursiveCharacter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

type Option func(*RecursiveCharacter)

func WithChunkSize(size int) Option {
	return func(s *RecursiveCharacter) { s.ChunkSize = size }
}

func WithChunkOverlap(overlap int) Option {
	return func(s *RecursiveCharacter) { s.ChunkOverlap = overlap }
}

func WithSeparators(separators []string) Option {
	return func(s *RecursiveCharacter) { s.Separators = separators }
}

func NewRecursiveCharacter(opts ...Option) *RecursiveCharacter {
	s := &RecursiveCharacter{
		ChunkSize:    1000,
		ChunkOverlap: 150,
		Separators:   DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// span is a piece of the input and its byte offset in it.
type span struct {
	text  string
	start int
}

func (s *RecursiveCharacter) validate() error {
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidOptions, s.ChunkSize)
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap > s.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be between 0 and chunk size %d", ErrInvalidOptions, s.ChunkOverlap, s.ChunkSize)
	}
	if len(s.Separators) == 0 {
		return fmt.Errorf("%w: at least one separator is required", ErrInvalidOptions)
	}
	return nil
}

// SplitText returns the chunks of text in order. Empty input yields no chunks.
func (s *RecursiveCharacter) SplitText(text string) ([]string, error) {
	spans, err := s.splitSpans(text)
	if err != nil {
		return nil, err
	}
	chunks := make([]string, 0, len(spans))
	for _, sp := range spans {
		chunks = append(chunks, sp.text)
	}
	return chunks, nil
}

// SplitDocuments splits every document and returns one document per
// non-blank chunk, carrying the parent metadata plus chunk_index and
// start_index (byte offset of the chunk in the parent content).
func (s *RecursiveCharacter) SplitDocuments(docs []store.Document) ([]store.Document, error) {
	var out []store.Document
	for _, doc := range docs {
		spans, err := s.splitSpans(doc.Content)
		if err != nil {
			return nil, err
		}

		idx := 0
		for _, sp := range spans {
			if strings.TrimSpace(sp.text) == "" {
				continue
			}
			meta := make(map[string]interface{}, len(doc.Metadata)+2)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta[store.MetaChunkIndex] = idx
			meta[store.MetaStartIndex] = sp.start

			out = append(out, store.Document{
				ID:       uuid.NewString(),
				Content:  sp.text,
				Metadata: meta,
			})
			idx++
		}
	}
	return out, nil
}

func (s *RecursiveCharacter) splitSpans(text string) ([]span, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	return s.split(span{text: text, start: 0}, s.Separators), nil
}

func (s *RecursiveCharacter) split(in span, separators []string) []span {
	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(in.text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var chunks, pending []span
	for _, piece := range pieces(in, separator) {
		if utf8.RuneCountInString(piece.text) <= s.ChunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending)...)
			pending = nil
		}
		if len(finer) == 0 {
			// Nothing left to cut on.
			chunks = append(chunks, piece)
			continue
		}
		chunks = append(chunks, s.split(piece, finer)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending)...)
	}
	return chunks
}

// merge packs adjacent pieces into chunks, keeping a tail of at most
// ChunkOverlap characters from one chunk as the head of the next.
func (s *RecursiveCharacter) merge(in []span) []span {
	var chunks []span
	var window []span
	total := 0

	for _, piece := range in {
		n := utf8.RuneCountInString(piece.text)
		if total+n > s.ChunkSize && len(window) > 0 {
			chunks = append(chunks, join(window))
			for total > s.ChunkOverlap || (total+n > s.ChunkSize && total > 0) {
				total -= utf8.RuneCountInString(window[0].text)
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n
	}
	if len(window) > 0 {
		chunks = append(chunks, join(window))
	}
	return chunks
}

func pieces(in span, separator string) []span {
	var parts []string
	if separator == "" {
		parts = strings.Split(in.text, "")
	} else {
		parts = strings.SplitAfter(in.text, separator)
	}

	out := make([]span, 0, len(parts))
	offset := in.start
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, span{text: p, start: offset})
		offset += len(p)
	}
	return out
}

func join(window []span) span {
	var b strings.Builder
	for _, w := range window {
		b.WriteString(w.text)
	}
	return span{text: b.String(), start: window[0].start}
}
