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

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db sqlx.ExtContext
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepository{db: tx}
}

// Create inserts a new user and fills in its id and creation time
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (username, api_key, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`)

	u.CreatedAt = time.Now().UTC()
	err := sqlx.GetContext(ctx, r.db, &u.ID, query, u.Username, u.APIKey, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, username, api_key, created_at FROM users WHERE id = ?`, id)
}

// GetByAPIKey retrieves the user owning the exact api key
func (r *userRepository) GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, username, api_key, created_at FROM users WHERE api_key = ?`, apiKey)
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, username, api_key, created_at FROM users WHERE username = ?`, username)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, r.db, &u, r.db.Rebind(query), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := r.db.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`)

	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}

// GetSummaries loads id + name for every id in one query. Unknown ids are absent from the map.
func (r *userRepository) GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	result := make(map[int64]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT id, username FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build user summary query: %w", err)
	}

	var users []model.UserSummary
	if err := sqlx.SelectContext(ctx, r.db, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}

	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}
