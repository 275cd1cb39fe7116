package model

import "time"

const (
	SourceTypeRepository = "repository"
	SourceTypeWiki       = "wiki"
	SourceTypeLocal      = "local"
)

// Document is one indexed source artifact. SourceURL is the natural key:
// re-ingesting the same URL updates the row instead of creating a duplicate.
type Document struct {
	ID          int64     `json:"id"`
	SourceType  string    `json:"source_type"`
	SourceURL   string    `json:"source_url"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
