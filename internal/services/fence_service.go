package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hireprep/hireprep/internal/cache"
	"github.com/hireprep/hireprep/internal/identity"
	pgrepo "github.com/hireprep/hireprep/internal/repositories/postgres"
	"github.com/hireprep/hireprep/internal/utils"
)

// FenceService enforces "one logical active session per user" on a
// best-effort, cooperative basis. It is a last-writer-wins token compare,
// not a security boundary and not a mutex: two near-simultaneous
// CreateSession calls race and the last write wins, which is acceptable for
// detecting "logged in elsewhere".
type FenceService interface {
	// CreateSession writes a fresh fence onto the user row and returns the
	// new session id. Whatever session was previously active is silently
	// invalidated: its next validation will fail.
	CreateSession(ctx context.Context, userID, userAgent string) (string, error)

	// ValidateSession fails closed: false on an empty local id, a missing
	// user, an empty stored id, a mismatch, or any store error. On a match
	// it refreshes session_last_active as a side effect.
	ValidateSession(ctx context.Context, userID, localSessionID string) bool

	// InvalidateSession clears the fence fields and the cache entry. Used on
	// explicit logout and forced sign-out.
	InvalidateSession(ctx context.Context, userID string) error
}

const fenceCacheTTL = 30 * time.Second

func fenceCacheKey(userID string) string { return "fence:" + userID }

type fenceService struct {
	users pgrepo.UserRepository
	cache cache.Cache
	log   *logrus.Logger
}

func NewFenceService(users pgrepo.UserRepository, c cache.Cache, log *logrus.Logger) FenceService {
	if log == nil {
		log = logrus.New()
	}
	return &fenceService{users: users, cache: c, log: log}
}

func (s *fenceService) CreateSession(ctx context.Context, userID, userAgent string) (string, error) {
	const op = "FenceService.CreateSession"

	if userID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	sessionID := identity.NewSessionID()
	device := identity.DeviceFingerprint(userAgent)
	now := time.Now().UTC()

	if err := s.users.SetFence(ctx, userID, sessionID, device, now); err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to persist session fence", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, fenceCacheKey(userID), sessionID, fenceCacheTTL); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("fence cache write failed")
		}
	}
	return sessionID, nil
}

func (s *fenceService) ValidateSession(ctx context.Context, userID, localSessionID string) bool {
	if userID == "" || localSessionID == "" {
		return false
	}

	// fast path: recently validated id
	if s.cache != nil {
		var cached string
		if hit, err := s.cache.GetJSON(ctx, fenceCacheKey(userID), &cached); err == nil && hit {
			if cached == localSessionID {
				s.touch(ctx, userID)
				return true
			}
			// cached mismatch still falls through to the store; the cache
			// may simply be stale after a fresh login
		}
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return false
	}
	if u.ActiveSessionID == "" || u.ActiveSessionID != localSessionID {
		return false
	}

	s.touch(ctx, userID)
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, fenceCacheKey(userID), u.ActiveSessionID, fenceCacheTTL)
	}
	return true
}

func (s *fenceService) touch(ctx context.Context, userID string) {
	if err := s.users.TouchFence(ctx, userID, time.Now().UTC()); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("failed to refresh session_last_active")
	}
}

func (s *fenceService) InvalidateSession(ctx context.Context, userID string) error {
	const op = "FenceService.InvalidateSession"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if err := s.users.ClearFence(ctx, userID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to clear session fence", err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, fenceCacheKey(userID)); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("fence cache delete failed")
			// a stale cached id would keep the fast path validating the
			// just-cleared session for up to the TTL; overwrite it instead
			if serr := s.cache.SetJSON(ctx, fenceCacheKey(userID), "", fenceCacheTTL); serr != nil {
				s.log.WithError(serr).WithField("user_id", userID).Warn("fence cache overwrite failed")
			}
		}
	}
	return nil
}
