package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"microblog/internal/database/dbtest"
	"microblog/internal/metrics"
	"microblog/internal/model"
	"microblog/internal/repository"
	"microblog/internal/storage"
)

type fixture struct {
	db      *sqlx.DB
	store   *storage.LocalStore
	metrics *metrics.Metrics
	users   *UserService
	follows *FollowService
	tweets  *TweetService
	media   *MediaService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, 10, MediaConfig{MaxBytes: 1 << 20})
}

func newFixtureWith(t *testing.T, maxMedia int, mediaCfg MediaConfig) *fixture {
	db := dbtest.Open(t)
	log := zaptest.NewLogger(t)
	m := metrics.New(prometheus.NewRegistry())

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	tweetRepo := repository.NewTweetRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	mediaRepo := repository.NewMediaRepository(db)

	return &fixture{
		db:      db,
		store:   store,
		metrics: m,
		users:   NewUserService(userRepo, followRepo, nil, log),
		follows: NewFollowService(followRepo, userRepo, db, m, log),
		tweets:  NewTweetService(tweetRepo, likeRepo, userRepo, mediaRepo, db, maxMedia, m, log),
		media:   NewMediaService(mediaRepo, store, mediaCfg, m, log),
	}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	u, err := f.users.CreateUser(context.Background(), name, name+"-key")
	require.NoError(t, err)
	return u
}

func (f *fixture) tweet(t *testing.T, author int64, content string) *model.RenderedTweet {
	tw, err := f.tweets.Create(context.Background(), author, content, nil)
	require.NoError(t, err)
	return tw
}

func (f *fixture) count(t *testing.T, table string) int {
	var n int
	require.NoError(t, f.db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}
