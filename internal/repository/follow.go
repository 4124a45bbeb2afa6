package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"microblog/internal/model"
)

type followRepository struct {
	db sqlx.ExtContext
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) WithTx(tx *sqlx.Tx) FollowRepository {
	return &followRepository{db: tx}
}

func (r *followRepository) Create(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := r.db.Rebind(`
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`)
	result, err := r.db.ExecContext(ctx, query, followerID, followeeID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create follow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Delete removes the edge. A missing edge is not an error.
func (r *followRepository) Delete(ctx context.Context, followerID, followeeID int64) error {
	query := r.db.Rebind(`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := r.db.Rebind(`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ?)`)
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// GetFollowers returns the users following userID, sorted by name.
func (r *followRepository) GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	query := r.db.Rebind(`
		SELECT u.id, u.username
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = ?
		ORDER BY u.username ASC, u.id ASC
	`)

	users := []model.UserSummary{}
	if err := sqlx.SelectContext(ctx, r.db, &users, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return users, nil
}

// GetFollowing returns the users userID follows, sorted by name.
func (r *followRepository) GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	query := r.db.Rebind(`
		SELECT u.id, u.username
		FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = ?
		ORDER BY u.username ASC, u.id ASC
	`)

	users := []model.UserSummary{}
	if err := sqlx.SelectContext(ctx, r.db, &users, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return users, nil
}
