package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"microblog/internal/model"
)

type likeRepository struct {
	db sqlx.ExtContext
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) WithTx(tx *sqlx.Tx) LikeRepository {
	return &likeRepository{db: tx}
}

func (r *likeRepository) Create(ctx context.Context, userID, tweetID int64) (bool, error) {
	query := r.db.Rebind(`
		INSERT INTO likes (user_id, tweet_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, tweet_id) DO NOTHING
	`)
	result, err := r.db.ExecContext(ctx, query, userID, tweetID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Delete removes the like if present.
func (r *likeRepository) Delete(ctx context.Context, userID, tweetID int64) error {
	query := r.db.Rebind(`DELETE FROM likes WHERE user_id = ? AND tweet_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, userID, tweetID); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

// GetLikers batch-loads likers per tweet, sorted by name.
func (r *likeRepository) GetLikers(ctx context.Context, tweetIDs []int64) (map[int64][]model.Liker, error) {
	result := make(map[int64][]model.Liker, len(tweetIDs))
	if len(tweetIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`
		SELECT l.tweet_id, u.id AS user_id, u.username
		FROM likes l
		JOIN users u ON u.id = l.user_id
		WHERE l.tweet_id IN (?)
		ORDER BY u.username ASC, u.id ASC
	`, tweetIDs)
	if err != nil {
		return nil, fmt.Errorf("build likers query: %w", err)
	}

	var rows []struct {
		TweetID int64 `db:"tweet_id"`
		model.Liker
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get likers: %w", err)
	}

	for _, row := range rows {
		result[row.TweetID] = append(result[row.TweetID], row.Liker)
	}
	return result, nil
}
