package model

import "time"

// ChunkMetadata travels with a chunk as jsonb. Field names follow the wire
// format consumed by the answer-generation layer.
type ChunkMetadata struct {
	FilePath     string `json:"filePath"`
	FunctionName string `json:"functionName,omitempty"`
	Language     string `json:"language,omitempty"`
	StartLine    int    `json:"startLine,omitempty"`
	EndLine      int    `json:"endLine,omitempty"`
}

// Chunk is a fragment of a Document prepared for retrieval. A document's
// chunk set is replaced wholesale on re-sync.
type Chunk struct {
	ID         string        `json:"id"`
	DocumentID int64         `json:"document_id"`
	ChunkIndex int           `json:"chunk_index"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Embedding  []float32     `json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Fragment is a chunk candidate produced by the chunker, before embedding
// and persistence.
type Fragment struct {
	Index    int
	Content  string
	Metadata ChunkMetadata
}
