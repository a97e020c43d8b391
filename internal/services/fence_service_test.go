package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireprep/hireprep/internal/models"
	"github.com/hireprep/hireprep/internal/utils"
)

// fakeUserRepo is an in-memory UserRepository shared by the service tests.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User

	failSetFence bool
	failGetByID  bool
	increments   map[string]int
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*models.User{}, increments: map[string]int{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGetByID {
		return nil, errors.New("store unavailable")
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeUserRepo) SetFence(ctx context.Context, userID, sessionID, deviceInfo string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSetFence {
		return errors.New("store unavailable")
	}
	u, ok := r.users[userID]
	if !ok {
		return utils.ErrNotFound
	}
	u.ActiveSessionID = sessionID
	u.SessionDeviceInfo = deviceInfo
	u.SessionStartTime = &at
	u.SessionLastActive = &at
	return nil
}

func (r *fakeUserRepo) TouchFence(ctx context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.SessionLastActive = &at
	}
	return nil
}

func (r *fakeUserRepo) ClearFence(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.ActiveSessionID = ""
		u.SessionDeviceInfo = ""
		u.SessionStartTime = nil
		u.SessionLastActive = nil
	}
	return nil
}

func (r *fakeUserRepo) IncrementInterviews(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.increments[userID]++
	if u, ok := r.users[userID]; ok {
		u.InterviewsTaken++
	}
	return nil
}

// fakeCache is an in-memory Cache; TTLs are ignored.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]any
	failDel bool
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]any{}} }

func (c *fakeCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if s, ok := v.(string); ok {
		if p, ok := dst.(*string); ok {
			*p = s
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = val
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failDel {
		return errors.New("cache unavailable")
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func TestFenceService_SecondLoginInvalidatesFirst(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(&models.User{ID: "u1"})
	svc := NewFenceService(repo, newFakeCache(), nil)

	first, err := svc.CreateSession(ctx, "u1", "laptop-agent")
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.True(t, svc.ValidateSession(ctx, "u1", first))

	second, err := svc.CreateSession(ctx, "u1", "phone-agent")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	assert.False(t, svc.ValidateSession(ctx, "u1", first), "old session must fail after a new login")
	assert.True(t, svc.ValidateSession(ctx, "u1", second))
}

func TestFenceService_ValidateFailsClosed(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(&models.User{ID: "u1", ActiveSessionID: "sess-1"})
	svc := NewFenceService(repo, nil, nil)

	assert.False(t, svc.ValidateSession(ctx, "", "sess-1"), "empty user id")
	assert.False(t, svc.ValidateSession(ctx, "u1", ""), "empty local session id")
	assert.False(t, svc.ValidateSession(ctx, "nobody", "sess-1"), "unknown user")
	assert.False(t, svc.ValidateSession(ctx, "u1", "sess-other"), "mismatch")

	repo.failGetByID = true
	assert.False(t, svc.ValidateSession(ctx, "u1", "sess-1"), "store error fails closed")
}

func TestFenceService_ValidateRefreshesLastActive(t *testing.T) {
	ctx := context.Background()
	past := time.Now().UTC().Add(-time.Hour)
	repo := newFakeUserRepo(&models.User{ID: "u1", ActiveSessionID: "sess-1", SessionLastActive: &past})
	svc := NewFenceService(repo, nil, nil)

	require.True(t, svc.ValidateSession(ctx, "u1", "sess-1"))
	require.NotNil(t, repo.users["u1"].SessionLastActive)
	assert.True(t, repo.users["u1"].SessionLastActive.After(past))
}

func TestFenceService_ValidateUsesCacheFastPath(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(&models.User{ID: "u1"})
	c := newFakeCache()
	svc := NewFenceService(repo, c, nil)

	id, err := svc.CreateSession(ctx, "u1", "agent")
	require.NoError(t, err)

	// the store goes away; the cached id still validates
	repo.failGetByID = true
	assert.True(t, svc.ValidateSession(ctx, "u1", id))
}

func TestFenceService_StaleCacheFallsThroughToStore(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(&models.User{ID: "u1", ActiveSessionID: "fresh"})
	c := newFakeCache()
	require.NoError(t, c.SetJSON(ctx, "fence:u1", "stale", 0))

	svc := NewFenceService(repo, c, nil)
	assert.True(t, svc.ValidateSession(ctx, "u1", "fresh"), "a stale cache entry must not reject the real session")
}

func TestFenceService_InvalidateSession(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(&models.User{ID: "u1"})
	c := newFakeCache()
	svc := NewFenceService(repo, c, nil)

	id, err := svc.CreateSession(ctx, "u1", "agent")
	require.NoError(t, err)
	require.True(t, svc.ValidateSession(ctx, "u1", id))

	require.NoError(t, svc.InvalidateSession(ctx, "u1"))
	assert.False(t, svc.ValidateSession(ctx, "u1", id))
	assert.Empty(t, repo.users["u1"].ActiveSessionID)
}

func TestFenceService_InvalidateSurvivesCacheDeleteFailure(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(&models.User{ID: "u1"})
	c := newFakeCache()
	svc := NewFenceService(repo, c, nil)

	id, err := svc.CreateSession(ctx, "u1", "agent")
	require.NoError(t, err)
	require.True(t, svc.ValidateSession(ctx, "u1", id))

	c.failDel = true
	require.NoError(t, svc.InvalidateSession(ctx, "u1"))

	// even with the store gone, the cache fast path must not keep the
	// invalidated session alive
	repo.failGetByID = true
	assert.False(t, svc.ValidateSession(ctx, "u1", id))
}

func TestFenceService_CreateSessionErrors(t *testing.T) {
	ctx := context.Background()

	svc := NewFenceService(newFakeUserRepo(), nil, nil)
	_, err := svc.CreateSession(ctx, "", "agent")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	repo := newFakeUserRepo(&models.User{ID: "u1"})
	repo.failSetFence = true
	svc = NewFenceService(repo, nil, nil)
	_, err = svc.CreateSession(ctx, "u1", "agent")
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
}
