package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"microblog/internal/database"
	"microblog/internal/model"
)

// Like records userID's like on tweetID.
func (s *TweetService) Like(ctx context.Context, userID, tweetID int64) error {
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		exists, err := s.userRepo.WithTx(tx).Exists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return model.ErrUserNotFound
		}

		if _, err := s.tweetRepo.WithTx(tx).GetByID(ctx, tweetID); err != nil {
			return err
		}

		inserted, err := s.likeRepo.WithTx(tx).Create(ctx, userID, tweetID)
		if err != nil {
			return err
		}
		if !inserted {
			return model.ErrAlreadyLiked
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.Liked()
	s.log.Debug("tweet liked", zap.Int64("tweet_id", tweetID), zap.Int64("user_id", userID))
	return nil
}

// Unlike removes the like if present.
func (s *TweetService) Unlike(ctx context.Context, userID, tweetID int64) error {
	if err := s.likeRepo.Delete(ctx, userID, tweetID); err != nil {
		return err
	}

	s.metrics.Unliked()
	s.log.Debug("tweet unliked", zap.Int64("tweet_id", tweetID), zap.Int64("user_id", userID))
	return nil
}
