package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"microblog/internal/database"
	"microblog/internal/metrics"
	"microblog/internal/model"
	"microblog/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	db         *sqlx.DB
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	m *metrics.Metrics,
	log *zap.Logger,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		db:         db,
		metrics:    m,
		log:        log,
	}
}

// Follow creates the follower -> followee edge. Self-follows are forbidden
// and an existing edge is reported as model.ErrAlreadyFollowing.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}

	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		users := s.userRepo.WithTx(tx)
		follows := s.followRepo.WithTx(tx)

		for _, id := range []int64{followerID, followeeID} {
			exists, err := users.Exists(ctx, id)
			if err != nil {
				return err
			}
			if !exists {
				return model.ErrUserNotFound
			}
		}

		exists, err := follows.Exists(ctx, followerID, followeeID)
		if err != nil {
			return err
		}
		if exists {
			return model.ErrAlreadyFollowing
		}

		// a concurrent follow can still win between the check and the insert
		inserted, err := follows.Create(ctx, followerID, followeeID)
		if err != nil {
			return err
		}
		if !inserted {
			return model.ErrAlreadyFollowing
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.Followed()
	s.log.Debug("follow created", zap.Int64("follower_id", followerID), zap.Int64("followee_id", followeeID))
	return nil
}

// Unfollow removes the edge if it exists.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	if err := s.followRepo.Delete(ctx, followerID, followeeID); err != nil {
		return err
	}

	s.metrics.Unfollowed()
	s.log.Debug("follow removed", zap.Int64("follower_id", followerID), zap.Int64("followee_id", followeeID))
	return nil
}
