package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"microblog/internal/model"
)

type tweetRepository struct {
	db sqlx.ExtContext
}

func NewTweetRepository(db *sqlx.DB) TweetRepository {
	return &tweetRepository{db: db}
}

func (r *tweetRepository) WithTx(tx *sqlx.Tx) TweetRepository {
	return &tweetRepository{db: tx}
}

// Create inserts the tweet and fills in its id and creation time.
func (r *tweetRepository) Create(ctx context.Context, t *model.Tweet) error {
	query := r.db.Rebind(`
		INSERT INTO tweets (author_id, content, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`)

	t.CreatedAt = time.Now().UTC()
	if err := sqlx.GetContext(ctx, r.db, &t.ID, query, t.AuthorID, t.Content, t.CreatedAt); err != nil {
		return fmt.Errorf("insert tweet: %w", err)
	}
	return nil
}

func (r *tweetRepository) GetByID(ctx context.Context, id int64) (*model.Tweet, error) {
	query := r.db.Rebind(`SELECT id, author_id, content, created_at FROM tweets WHERE id = ?`)

	var t model.Tweet
	if err := sqlx.GetContext(ctx, r.db, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrTweetNotFound
		}
		return nil, fmt.Errorf("get tweet: %w", err)
	}
	return &t, nil
}

// Delete removes the tweet; likes and attachment links go with it.
func (r *tweetRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tweets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrTweetNotFound
	}
	return nil
}

// AttachMedia links media to the tweet, recording their order in position.
func (r *tweetRepository) AttachMedia(ctx context.Context, tweetID int64, mediaIDs []int64) error {
	query := r.db.Rebind(`INSERT INTO tweet_media (tweet_id, media_id, position) VALUES (?, ?, ?)`)
	for i, mediaID := range mediaIDs {
		if _, err := r.db.ExecContext(ctx, query, tweetID, mediaID, i); err != nil {
			return fmt.Errorf("attach media %d: %w", mediaID, err)
		}
	}
	return nil
}

func (r *tweetRepository) ListFeed(ctx context.Context, viewerID int64) ([]model.FeedEntry, error) {
	query := r.db.Rebind(`
		SELECT t.id, t.author_id, t.content, t.created_at,
		       COALESCE(lc.like_count, 0) AS like_count
		FROM tweets t
		LEFT JOIN (
			SELECT tweet_id, COUNT(*) AS like_count
			FROM likes
			GROUP BY tweet_id
		) lc ON lc.tweet_id = t.id
		WHERE t.author_id = ?
		   OR t.author_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)
		ORDER BY like_count DESC, t.created_at DESC, t.id DESC
	`)

	var entries []model.FeedEntry
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, viewerID, viewerID); err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	return entries, nil
}

func (r *tweetRepository) ListByAuthor(ctx context.Context, authorID *int64) ([]model.Tweet, error) {
	query := `SELECT id, author_id, content, created_at FROM tweets`
	var args []interface{}
	if authorID != nil {
		query += ` WHERE author_id = ?`
		args = append(args, *authorID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var tweets []model.Tweet
	if err := sqlx.SelectContext(ctx, r.db, &tweets, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list tweets: %w", err)
	}
	return tweets, nil
}

// GetAttachments batch-loads attachment paths per tweet in attachment order.
func (r *tweetRepository) GetAttachments(ctx context.Context, tweetIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(tweetIDs))
	if len(tweetIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`
		SELECT tm.tweet_id, m.path
		FROM tweet_media tm
		JOIN medias m ON m.id = tm.media_id
		WHERE tm.tweet_id IN (?)
		ORDER BY tm.tweet_id, tm.position, m.id
	`, tweetIDs)
	if err != nil {
		return nil, fmt.Errorf("build attachments query: %w", err)
	}

	var rows []struct {
		TweetID int64  `db:"tweet_id"`
		Path    string `db:"path"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get attachments: %w", err)
	}

	for _, row := range rows {
		result[row.TweetID] = append(result[row.TweetID], row.Path)
	}
	return result, nil
}
