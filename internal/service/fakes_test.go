package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"chat-with-pdf-be/internal/config"
	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/dto"
	"chat-with-pdf-be/internal/entity"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/internal/repository/contract"
	"chat-with-pdf-be/internal/repository/memory"
	"chat-with-pdf-be/pkg/embedding"
	"chat-with-pdf-be/pkg/llm"
	"chat-with-pdf-be/pkg/rag"
	"chat-with-pdf-be/pkg/store"
	"chat-with-pdf-be/pkg/vectorstore"
)

var errBoom = errors.New("boom")

// wordEmbedder hashes words into a small vector; texts sharing words score high.
type wordEmbedder struct{}

func (wordEmbedder) Model() string { return "words" }

func (wordEmbedder) Generate(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?!")))
		vec[h.Sum32()%64]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / math.Sqrt(norm))
	}
	return vec, nil
}

func (e wordEmbedder) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Generate(ctx, t)
	}
	return out, nil
}

// echoLLM answers with the last line of the prompt it was given.
type echoLLM struct {
	mu      sync.Mutex
	prompts []string
}

func (m *echoLLM) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	return m.Generate(ctx, history[len(history)-1].Content)
}

func (m *echoLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return fmt.Sprintf("answer #%d", len(m.prompts)), nil
}

type fakeGateway struct {
	model   llm.LLMProvider
	chatErr error
}

func (g *fakeGateway) Embeddings() embedding.EmbeddingProvider { return wordEmbedder{} }

func (g *fakeGateway) ChatModel() (llm.LLMProvider, error) {
	if g.chatErr != nil {
		return nil, g.chatErr
	}
	return g.model, nil
}

// memoryRepo stands in for the shared remote table.
type memoryRepo struct {
	mu   sync.Mutex
	rows []*entity.ChunkEmbedding
}

func (r *memoryRepo) EnsureSchema(context.Context) error { return nil }

func (r *memoryRepo) CreateBulk(_ context.Context, rows []*entity.ChunkEmbedding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *memoryRepo) DeleteAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.rows))
	r.rows = nil
	return n, nil
}

func (r *memoryRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *memoryRepo) SearchSimilarWithScore(_ context.Context, vec []float32, limit int) ([]*contract.ScoredChunkEmbedding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scored := make([]*contract.ScoredChunkEmbedding, 0, len(r.rows))
	for _, row := range r.rows {
		var dot float64
		for i := range vec {
			dot += float64(vec[i]) * float64(row.Embedding[i])
		}
		scored = append(scored, &contract.ScoredChunkEmbedding{Embedding: row, Similarity: dot})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

type closeCounter struct {
	mu sync.Mutex
	n  int
}

func (c *closeCounter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func (c *closeCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// stubIndex is a VectorStore that only counts Close calls.
type stubIndex struct {
	closeCounter
}

func (s *stubIndex) AddDocuments(context.Context, []store.Document) error { return nil }

func (s *stubIndex) SimilaritySearch(context.Context, string, int) ([]store.Document, error) {
	return nil, nil
}

func (s *stubIndex) Delete(context.Context) error { return nil }

type fakeIndexer struct {
	mu       sync.Mutex
	err      error
	builds   int
	backends []string
	chunks   []store.Document
	index    *stubIndex
	// block, when set, holds Build until it is closed
	block chan struct{}
	// entered is signalled once Build starts
	entered chan struct{}
}

func (f *fakeIndexer) Build(_ context.Context, docs []store.Document, backend string) (vectorstore.VectorStore, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds++
	f.backends = append(f.backends, backend)
	f.chunks = docs
	if f.err != nil {
		return nil, f.err
	}
	f.index = &stubIndex{}
	return f.index, nil
}

// scriptedEngine returns canned answers in order and records the questions.
type scriptedEngine struct {
	mu        sync.Mutex
	answers   []string
	err       error
	questions []string
}

func (e *scriptedEngine) Invoke(_ context.Context, question string) (*rag.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.questions = append(e.questions, question)
	if e.err != nil {
		return nil, e.err
	}
	answer := e.answers[0]
	e.answers = e.answers[1:]
	return &rag.Result{
		Question:          question,
		GeneratedQuestion: question,
		Answer:            answer,
		SourceDocuments:   []store.Document{{ID: "c1", Content: "source text"}},
	}, nil
}

type fakeConversations struct {
	engine entity.ConversationEngine
	err    error
}

func (f *fakeConversations) NewEngine(vectorstore.VectorStore) (entity.ConversationEngine, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.engine, nil
}

// buildPDF writes a minimal PDF with one text page per entry.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	var kids []string
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}

	buf.WriteString("%PDF-1.4\n")
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		writeObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		stream := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func pdfUpload(name string, data []byte) *dto.ProcessDocumentRequest {
	return &dto.ProcessDocumentRequest{
		FileName:    name,
		ContentType: constant.PDFMimeType,
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
		Backend:     constant.BackendLocal,
		Submitted:   true,
	}
}

func testRagConfig() config.RagConfig {
	return config.RagConfig{
		ChunkSize:       constant.PDFChunkSize,
		ChunkOverlap:    constant.PDFChunkOverlap,
		TopK:            constant.RetrieverTopK,
		HistoryMaxTurns: constant.HistoryMaxTurns,
		DefaultBackend:  constant.DefaultBackend,
	}
}

type sessionFixture struct {
	svc     ISessionService
	repo    *memory.SessionRepository
	indexer *fakeIndexer
	convs   *fakeConversations
	engine  *scriptedEngine
}

func newSessionFixture() *sessionFixture {
	engine := &scriptedEngine{}
	f := &sessionFixture{
		repo:    memory.NewSessionRepository(time.Hour, logger.NewNopLogger()),
		indexer: &fakeIndexer{},
		engine:  engine,
		convs:   &fakeConversations{engine: engine},
	}
	f.svc = NewSessionService(f.repo, f.indexer, f.convs, nil, testRagConfig(), logger.NewNopLogger())
	return f
}
