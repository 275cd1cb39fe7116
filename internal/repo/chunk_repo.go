package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/devbrain-io/devbrain/internal/model"
	"github.com/devbrain-io/devbrain/internal/pkg/dbutil"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// InsertChunks writes a document's chunk set as one multi-row INSERT, so the
// new generation becomes visible atomically.
func (r *ChunkRepo) InsertChunks(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO document_chunks (id, document_id, chunk_index, content, metadata, embedding, created_at) VALUES ")
	args := make([]interface{}, 0, len(chunks)*6)
	for i, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("encode chunk metadata: %w", err)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, now())",
			base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Content, metadata, pgvector.NewVector(chunk.Embedding))
	}
	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *ChunkRepo) DeleteByDocument(ctx context.Context, documentID int64) error {
	where := map[string]interface{}{
		"document_id": documentID,
	}
	sqlStr, args, err := builder.BuildDelete("document_chunks", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, documentID int64) ([]*model.Chunk, error) {
	const query = `
		SELECT id, document_id, chunk_index, content, metadata, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index
	`
	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	chunks := make([]*model.Chunk, 0)
	for rows.Next() {
		var chunk model.Chunk
		var metadata []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content, &metadata, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &chunk.Metadata); err != nil {
				logutil.GetLogger(ctx).Warn("decode chunk metadata failed", zap.String("chunk_id", chunk.ID), zap.Error(err))
			}
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// VectorSearch returns up to limit chunks nearest to the query embedding by
// cosine distance, best first. Score is 1 - distance.
func (r *ChunkRepo) VectorSearch(ctx context.Context, embedding []float32, limit int) ([]*model.SearchResult, error) {
	const query = `
		SELECT c.id, c.document_id, c.content, c.metadata,
		       1 - (c.embedding <=> $1) AS similarity
		FROM document_chunks c
		WHERE c.embedding IS NOT NULL
		ORDER BY c.embedding <=> $1
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSearchResults(ctx, rows)
}

// LexicalSearch ranks chunks by postgres full-text relevance, best first.
func (r *ChunkRepo) LexicalSearch(ctx context.Context, queryText string, limit int) ([]*model.SearchResult, error) {
	const query = `
		SELECT c.id, c.document_id, c.content, c.metadata,
		       ts_rank(c.fts_vector, plainto_tsquery('english', $1)) AS rank
		FROM document_chunks c
		WHERE c.fts_vector @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, queryText, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSearchResults(ctx, rows)
}

// scanSearchResults tolerates malformed rows: a row that fails to scan or
// carries broken metadata is dropped with a logged anomaly instead of
// aborting the whole result set.
func scanSearchResults(ctx context.Context, rows *sql.Rows) ([]*model.SearchResult, error) {
	results := make([]*model.SearchResult, 0)
	for rows.Next() {
		var item model.SearchResult
		var metadata []byte
		var score sql.NullFloat64
		if err := rows.Scan(&item.ChunkID, &item.DocumentID, &item.Content, &metadata, &score); err != nil {
			logutil.GetLogger(ctx).Warn("skip malformed search row", zap.Error(err))
			continue
		}
		if score.Valid {
			item.Score = score.Float64
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
				logutil.GetLogger(ctx).Warn("skip unparsable chunk metadata",
					zap.String("chunk_id", item.ChunkID), zap.Error(err))
				item.Metadata = model.ChunkMetadata{}
			}
		}
		results = append(results, &item)
	}
	return results, rows.Err()
}
