package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"microblog/internal/model"
	"microblog/internal/repository"
)

// mockKeyCache lets each test control cache behaviour and records calls.
type mockKeyCache struct {
	getFn func(ctx context.Context, apiKey string) (int64, bool, error)
	setFn func(ctx context.Context, apiKey string, userID int64) error

	sets    map[string]int64
	deletes []string
}

func (m *mockKeyCache) Get(ctx context.Context, apiKey string) (int64, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, apiKey)
	}
	id, ok := m.sets[apiKey]
	return id, ok, nil
}

func (m *mockKeyCache) Set(ctx context.Context, apiKey string, userID int64) error {
	if m.setFn != nil {
		return m.setFn(ctx, apiKey, userID)
	}
	if m.sets == nil {
		m.sets = map[string]int64{}
	}
	m.sets[apiKey] = userID
	return nil
}

func (m *mockKeyCache) Delete(ctx context.Context, apiKey string) error {
	m.deletes = append(m.deletes, apiKey)
	delete(m.sets, apiKey)
	return nil
}

func newCachedUserService(t *testing.T, keys *mockKeyCache) (*UserService, *fixture) {
	f := newFixture(t)
	svc := NewUserService(repository.NewUserRepository(f.db), repository.NewFollowRepository(f.db), keys, zaptest.NewLogger(t))
	return svc, f
}

func TestUserService_FindByKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")

	got, err := f.users.FindByKey(ctx, "alice-key")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	_, err = f.users.FindByKey(ctx, "nope")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUserService_FindByKey_PopulatesCache(t *testing.T) {
	ctx := context.Background()
	keys := &mockKeyCache{}
	svc, f := newCachedUserService(t, keys)
	alice := f.user(t, "alice")

	_, err := svc.FindByKey(ctx, "alice-key")
	require.NoError(t, err)
	require.Equal(t, alice.ID, keys.sets["alice-key"])

	// second lookup is served through the cached id
	got, err := svc.FindByKey(ctx, "alice-key")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)
}

func TestUserService_FindByKey_StaleCacheEntry(t *testing.T) {
	ctx := context.Background()
	keys := &mockKeyCache{sets: map[string]int64{"alice-key": 999}}
	svc, f := newCachedUserService(t, keys)
	alice := f.user(t, "alice")

	got, err := svc.FindByKey(ctx, "alice-key")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
	require.Equal(t, []string{"alice-key"}, keys.deletes)
	require.Equal(t, alice.ID, keys.sets["alice-key"])
}

func TestUserService_FindByKey_CacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	keys := &mockKeyCache{
		getFn: func(context.Context, string) (int64, bool, error) { return 0, false, errors.New("redis down") },
		setFn: func(context.Context, string, int64) error { return errors.New("redis down") },
	}
	svc, f := newCachedUserService(t, keys)
	alice := f.user(t, "alice")

	got, err := svc.FindByKey(ctx, "alice-key")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
}

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name     string
		username string
		apiKey   string
		wantErr  error
	}{
		{name: "valid", username: "alice", apiKey: "k1"},
		{name: "generated key", username: "bob"},
		{name: "blank name", username: "   ", apiKey: "k2", wantErr: model.ErrUsernameRequired},
		{name: "duplicate name", username: "alice", apiKey: "k3", wantErr: model.ErrUserExists},
		{name: "duplicate key", username: "carol", apiKey: "k1", wantErr: model.ErrUserExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := f.users.CreateUser(ctx, tt.username, tt.apiKey)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotZero(t, user.ID)
			require.NotEmpty(t, user.APIKey)
		})
	}
}

func TestUserService_EnsureUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, created, err := f.users.EnsureUser(ctx, "test", "test")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.users.EnsureUser(ctx, "test", "test")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
}

func TestUserService_GetPublicProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice, bob, carol := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	require.NoError(t, f.follows.Follow(ctx, carol.ID, alice.ID))
	require.NoError(t, f.follows.Follow(ctx, bob.ID, alice.ID))
	require.NoError(t, f.follows.Follow(ctx, alice.ID, carol.ID))

	profile, err := f.users.GetPublicProfile(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice.ID, profile.ID)
	require.Equal(t, "alice", profile.Name)
	require.Equal(t, []model.UserSummary{{ID: bob.ID, Name: "bob"}, {ID: carol.ID, Name: "carol"}}, profile.Followers)
	require.Equal(t, []model.UserSummary{{ID: carol.ID, Name: "carol"}}, profile.Following)

	lonely, err := f.users.GetPublicProfile(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, lonely.Followers)
	require.NotNil(t, lonely.Followers)

	_, err = f.users.GetPublicProfile(ctx, 12345)
	require.ErrorIs(t, err, model.ErrUserNotFound)
}
