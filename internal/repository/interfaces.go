package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"microblog/internal/model"
)

// Every repository is bound to either the pool or a transaction. WithTx
// returns a copy bound to tx so that multi-step service operations share
// one transaction.

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	WithTx(tx *sqlx.Tx) UserRepository
}

type FollowRepository interface {
	// Create reports false when the edge already existed.
	Create(ctx context.Context, followerID, followeeID int64) (bool, error)
	Delete(ctx context.Context, followerID, followeeID int64) error
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error)
	GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error)
	WithTx(tx *sqlx.Tx) FollowRepository
}

type TweetRepository interface {
	Create(ctx context.Context, tweet *model.Tweet) error
	GetByID(ctx context.Context, id int64) (*model.Tweet, error)
	Delete(ctx context.Context, id int64) error
	AttachMedia(ctx context.Context, tweetID int64, mediaIDs []int64) error
	// ListFeed returns the tweets of the viewer and everyone they follow,
	// ranked by like count, then newest first.
	ListFeed(ctx context.Context, viewerID int64) ([]model.FeedEntry, error)
	// ListByAuthor returns tweets newest first; a nil author lists everything.
	ListByAuthor(ctx context.Context, authorID *int64) ([]model.Tweet, error)
	GetAttachments(ctx context.Context, tweetIDs []int64) (map[int64][]string, error)
	WithTx(tx *sqlx.Tx) TweetRepository
}

type LikeRepository interface {
	// Create reports false when the like already existed.
	Create(ctx context.Context, userID, tweetID int64) (bool, error)
	Delete(ctx context.Context, userID, tweetID int64) error
	GetLikers(ctx context.Context, tweetIDs []int64) (map[int64][]model.Liker, error)
	WithTx(tx *sqlx.Tx) LikeRepository
}

type MediaRepository interface {
	Create(ctx context.Context, media *model.Media) error
	GetByIDs(ctx context.Context, ids []int64) ([]model.Media, error)
	// ListOrphans returns media no tweet references, created before cutoff.
	ListOrphans(ctx context.Context, cutoff time.Time) ([]model.Media, error)
	// DeleteOrphan deletes the row unless a tweet references it; deleted is
	// false when the row was kept or is already gone.
	DeleteOrphan(ctx context.Context, id int64) (deleted bool, err error)
	WithTx(tx *sqlx.Tx) MediaRepository
}
