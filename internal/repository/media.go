package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"microblog/internal/model"
)

type mediaRepository struct {
	db sqlx.ExtContext
}

func NewMediaRepository(db *sqlx.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) WithTx(tx *sqlx.Tx) MediaRepository {
	return &mediaRepository{db: tx}
}

func (r *mediaRepository) Create(ctx context.Context, m *model.Media) error {
	query := r.db.Rebind(`
		INSERT INTO medias (path, content_type, size_bytes, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	m.CreatedAt = time.Now().UTC()
	if err := sqlx.GetContext(ctx, r.db, &m.ID, query, m.Path, m.ContentType, m.SizeBytes, m.CreatedAt); err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

// GetByIDs returns the media rows that exist among ids.
func (r *mediaRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, path, content_type, size_bytes, created_at
		FROM medias
		WHERE id IN (?)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("build media query: %w", err)
	}

	var media []model.Media
	if err := sqlx.SelectContext(ctx, r.db, &media, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return media, nil
}

func (r *mediaRepository) ListOrphans(ctx context.Context, cutoff time.Time) ([]model.Media, error) {
	query := r.db.Rebind(`
		SELECT m.id, m.path, m.content_type, m.size_bytes, m.created_at
		FROM medias m
		WHERE m.created_at < ?
		  AND NOT EXISTS (SELECT 1 FROM tweet_media tm WHERE tm.media_id = m.id)
		ORDER BY m.id
	`)

	var media []model.Media
	if err := sqlx.SelectContext(ctx, r.db, &media, query, cutoff.UTC()); err != nil {
		return nil, fmt.Errorf("list orphan media: %w", err)
	}
	return media, nil
}

// DeleteOrphan removes the media row only while no tweet references it and
// reports whether a row was deleted.
func (r *mediaRepository) DeleteOrphan(ctx context.Context, id int64) (bool, error) {
	query := r.db.Rebind(`
		DELETE FROM medias
		WHERE id = ?
		  AND NOT EXISTS (SELECT 1 FROM tweet_media WHERE media_id = ?)
	`)

	result, err := r.db.ExecContext(ctx, query, id, id)
	if err != nil {
		return false, fmt.Errorf("delete media: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete media: %w", err)
	}
	return rows > 0, nil
}
