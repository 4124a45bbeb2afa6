package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"microblog/internal/cache"
	"microblog/internal/model"
	"microblog/internal/repository"
)

// UserService resolves identities and builds public profiles.
type UserService struct {
	repo       repository.UserRepository
	followRepo repository.FollowRepository
	keys       cache.KeyCache
	log        *zap.Logger
}

// NewUserService creates the service. keys may be nil, in which case every
// lookup goes to the database.
func NewUserService(repo repository.UserRepository, followRepo repository.FollowRepository, keys cache.KeyCache, log *zap.Logger) *UserService {
	return &UserService{
		repo:       repo,
		followRepo: followRepo,
		keys:       keys,
		log:        log,
	}
}

// FindByKey returns the user owning apiKey, or model.ErrUserNotFound.
func (s *UserService) FindByKey(ctx context.Context, apiKey string) (*model.User, error) {
	if s.keys != nil {
		userID, found, err := s.keys.Get(ctx, apiKey)
		switch {
		case err != nil:
			s.log.Warn("api key cache lookup failed", zap.Error(err))
		case found:
			user, err := s.repo.GetByID(ctx, userID)
			if err == nil && user.APIKey == apiKey {
				return user, nil
			}
			if err != nil && !errors.Is(err, model.ErrUserNotFound) {
				return nil, err
			}
			// stale entry
			if err := s.keys.Delete(ctx, apiKey); err != nil {
				s.log.Warn("api key cache delete failed", zap.Error(err))
			}
		}
	}

	user, err := s.repo.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if s.keys != nil {
		if err := s.keys.Set(ctx, apiKey, user.ID); err != nil {
			s.log.Warn("api key cache store failed", zap.Error(err))
		}
	}
	return user, nil
}

// FindByID returns the user or model.ErrUserNotFound.
func (s *UserService) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetPublicProfile returns the user with full follower and following lists.
func (s *UserService) GetPublicProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	followers, err := s.followRepo.GetFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}

	following, err := s.followRepo.GetFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.Profile{
		ID:        user.ID,
		Name:      user.Username,
		Followers: followers,
		Following: following,
	}, nil
}

// CreateUser registers a user. An empty apiKey is replaced by a random one.
func (s *UserService) CreateUser(ctx context.Context, username, apiKey string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.ErrUsernameRequired
	}
	if utf8.RuneCountInString(username) > model.MaxUsernameLength {
		return nil, model.ErrUsernameTooLong
	}

	if apiKey == "" {
		apiKey = uuid.NewString()
	}

	user := &model.User{Username: username, APIKey: apiKey}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// EnsureUser returns the user with username, creating it when absent.
// created reports whether a new row was inserted.
func (s *UserService) EnsureUser(ctx context.Context, username, apiKey string) (user *model.User, created bool, err error) {
	user, err = s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, false, err
	}

	user, err = s.CreateUser(ctx, username, apiKey)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
