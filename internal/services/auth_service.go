package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hireprep/hireprep/internal/models"
	pgrepo "github.com/hireprep/hireprep/internal/repositories/postgres"
	"github.com/hireprep/hireprep/internal/utils"
)

// AuthClaims is the token payload. SessionID is compared against the user's
// fence on every request, which is how a login elsewhere kicks this token
// out even before it expires.
type AuthClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Role      string `json:"role"`
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	// Login verifies credentials, fences a new session, and returns a signed
	// token carrying the session id.
	Login(ctx context.Context, email, password, userAgent string) (token string, user *models.User, err error)
	Logout(ctx context.Context, userID string) error
}

type authService struct {
	users    pgrepo.UserRepository
	fence    FenceService
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(users pgrepo.UserRepository, fence FenceService, secret string) AuthService {
	return &authService{
		users:    users,
		fence:    fence,
		secret:   []byte(secret),
		tokenTTL: 24 * time.Hour,
	}
}

func (s *authService) Register(ctx context.Context, email, password string) (*models.User, error) {
	const op = "AuthService.Register"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, utils.E(utils.CodeInvalidArgument, op, "a valid email is required", nil)
	}
	if len(password) < 8 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "password must be at least 8 characters", nil)
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, utils.E(utils.CodeConflict, op, "email already registered", nil)
	} else if err != nil && !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to check existing account", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Plan:         "free",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create account", err)
	}
	return u, nil
}

func (s *authService) Login(ctx context.Context, email, password, userAgent string) (string, *models.User, error) {
	const op = "AuthService.Login"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, utils.E(utils.CodeInvalidArgument, op, "email and password are required", nil)
	}
	if len(s.secret) == 0 {
		return "", nil, utils.E(utils.CodeInternal, op, "signing secret is not configured", nil)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return "", nil, utils.E(utils.CodeUnauthorized, op, "invalid email or password", nil)
		}
		return "", nil, utils.E(utils.CodeInternal, op, "failed to load account", err)
	}
	if err := utils.CheckPassword(u.PasswordHash, password); err != nil {
		return "", nil, utils.E(utils.CodeUnauthorized, op, "invalid email or password", nil)
	}

	sessionID, err := s.fence.CreateSession(ctx, u.ID, userAgent)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		SessionID: sessionID,
		Role:      string(u.Role),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, utils.E(utils.CodeInternal, op, "failed to sign token", err)
	}
	return token, u, nil
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	const op = "AuthService.Logout"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	return s.fence.InvalidateSession(ctx, userID)
}
