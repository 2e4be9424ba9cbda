package store

// Document is a unit of text flowing through the pipeline: a whole PDF after
// loading, a chunk after splitting, a retrieved hit after search.
type Document struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Metadata keys
const (
	MetaSource     = "source"
	MetaChunkIndex = "chunk_index"
	MetaStartIndex = "start_index"
	MetaPageCount  = "page_count"
)
