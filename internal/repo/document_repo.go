package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/devbrain-io/devbrain/internal/model"
	"github.com/devbrain-io/devbrain/internal/pkg/dbutil"
	appErr "github.com/devbrain-io/devbrain/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert inserts a document row or refreshes an existing one keyed by
// source_url, returning the surrogate id. The content hash is NOT touched
// here: it is only persisted via MarkIndexed after chunks land, so a failed
// run is retried on the next sync.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *model.Document) (int64, error) {
	const query = `
		INSERT INTO documents (source_type, source_url, title, content_hash, created_at, updated_at)
		VALUES ($1, $2, $3, '', now(), now())
		ON CONFLICT (source_url) DO UPDATE SET
			source_type = EXCLUDED.source_type,
			updated_at = now()
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, doc.SourceType, doc.SourceURL, doc.Title).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *DocumentRepo) GetByURL(ctx context.Context, sourceURL string) (*model.Document, error) {
	where := map[string]interface{}{
		"source_url": sourceURL,
	}
	sqlStr, args, err := builder.BuildSelect("documents", where,
		[]string{"id", "source_type", "source_url", "title", "content_hash", "created_at", "updated_at"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var doc model.Document
	if err := row.Scan(&doc.ID, &doc.SourceType, &doc.SourceURL, &doc.Title, &doc.ContentHash, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// MarkIndexed persists the hash/title of a successfully indexed document.
func (r *DocumentRepo) MarkIndexed(ctx context.Context, id int64, title, contentHash string) error {
	where := map[string]interface{}{
		"id": id,
	}
	update := map[string]interface{}{
		"title":        title,
		"content_hash": contentHash,
		"updated_at":   time.Now().UTC(),
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) List(ctx context.Context, limit uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"_orderby": "updated_at desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	sqlStr, args, err := builder.BuildSelect("documents", where,
		[]string{"id", "source_type", "source_url", "title", "content_hash", "created_at", "updated_at"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := make([]model.Document, 0)
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.SourceType, &doc.SourceURL, &doc.Title, &doc.ContentHash, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes a document; its chunks cascade with it.
func (r *DocumentRepo) Delete(ctx context.Context, id int64) error {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildDelete("documents", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
