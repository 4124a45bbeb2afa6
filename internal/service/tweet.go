package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"microblog/internal/database"
	"microblog/internal/metrics"
	"microblog/internal/model"
	"microblog/internal/repository"
)

// TweetService owns the tweet and like lifecycles and assembles feeds.
type TweetService struct {
	tweetRepo repository.TweetRepository
	likeRepo  repository.LikeRepository
	userRepo  repository.UserRepository
	mediaRepo repository.MediaRepository
	db        *sqlx.DB
	maxMedia  int
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewTweetService creates the service. maxMedia caps the number of distinct
// attachments per tweet; zero disables the cap.
func NewTweetService(
	tweetRepo repository.TweetRepository,
	likeRepo repository.LikeRepository,
	userRepo repository.UserRepository,
	mediaRepo repository.MediaRepository,
	db *sqlx.DB,
	maxMedia int,
	m *metrics.Metrics,
	log *zap.Logger,
) *TweetService {
	return &TweetService{
		tweetRepo: tweetRepo,
		likeRepo:  likeRepo,
		userRepo:  userRepo,
		mediaRepo: mediaRepo,
		db:        db,
		maxMedia:  maxMedia,
		metrics:   m,
		log:       log,
	}
}

// Create validates and stores a tweet with its attachments and returns it rendered.
func (s *TweetService) Create(ctx context.Context, authorID int64, content string, mediaIDs []int64) (*model.RenderedTweet, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, model.ErrContentEmpty
	}
	if utf8.RuneCountInString(content) > model.MaxTweetLength {
		return nil, model.ErrContentTooLong
	}

	mediaIDs = dedupe(mediaIDs)
	if s.maxMedia > 0 && len(mediaIDs) > s.maxMedia {
		return nil, model.ErrTooManyMedia
	}

	tweet := &model.Tweet{AuthorID: authorID, Content: content}
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		exists, err := s.userRepo.WithTx(tx).Exists(ctx, authorID)
		if err != nil {
			return err
		}
		if !exists {
			return model.ErrUserNotFound
		}

		if len(mediaIDs) > 0 {
			found, err := s.mediaRepo.WithTx(tx).GetByIDs(ctx, mediaIDs)
			if err != nil {
				return err
			}
			if len(found) != len(mediaIDs) {
				return model.ErrMediaNotFound
			}
		}

		tweets := s.tweetRepo.WithTx(tx)
		if err := tweets.Create(ctx, tweet); err != nil {
			return err
		}
		return tweets.AttachMedia(ctx, tweet.ID, mediaIDs)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TweetCreated()
	s.log.Info("tweet created",
		zap.Int64("tweet_id", tweet.ID),
		zap.Int64("author_id", authorID),
		zap.Int("media", len(mediaIDs)))

	rendered, err := s.render(ctx, []model.Tweet{*tweet})
	if err != nil {
		return nil, err
	}
	return &rendered[0], nil
}

// Delete removes a tweet owned by requestingUserID.
func (s *TweetService) Delete(ctx context.Context, requestingUserID, tweetID int64) error {
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		tweets := s.tweetRepo.WithTx(tx)

		tweet, err := tweets.GetByID(ctx, tweetID)
		if err != nil {
			return err
		}
		if tweet.AuthorID != requestingUserID {
			return model.ErrNotTweetAuthor
		}
		return tweets.Delete(ctx, tweetID)
	})
	if err != nil {
		return err
	}

	s.metrics.TweetDeleted()
	s.log.Info("tweet deleted", zap.Int64("tweet_id", tweetID), zap.Int64("user_id", requestingUserID))
	return nil
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
