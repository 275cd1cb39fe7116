package model

// Embedding task types understood by the providers. Documents and queries
// are embedded with different task hints.
const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

// SearchResult is one ranked chunk returned by a single search leg or by the
// fused ranking. Score is leg-specific before fusion (cosine similarity or
// ts_rank) and the summed RRF score after.
type SearchResult struct {
	ChunkID    string        `json:"chunk_id"`
	DocumentID int64         `json:"document_id"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Score      float64       `json:"score"`
}

// SyncStats summarizes one sync run over a source.
type SyncStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}
