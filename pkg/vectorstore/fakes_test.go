package vectorstore

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"

	"chat-with-pdf-be/internal/entity"
	"chat-with-pdf-be/internal/repository/contract"
)

const hashDims = 64

// hashEmbedder is a bag-of-words embedder: texts sharing words get similar vectors.
type hashEmbedder struct{}

func (hashEmbedder) Model() string { return "hash" }

func (hashEmbedder) Generate(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashDims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?!")))
		vec[h.Sum32()%hashDims]++
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

func (e hashEmbedder) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := e.Generate(ctx, t)
		out[i] = v
	}
	return out, nil
}

// memoryRepo mimics the shared remote table.
type memoryRepo struct {
	mu          sync.Mutex
	rows        []*entity.ChunkEmbedding
	schemaCalls int
}

var _ contract.ChunkEmbeddingRepository = (*memoryRepo)(nil)

func (r *memoryRepo) EnsureSchema(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemaCalls++
	return nil
}

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
