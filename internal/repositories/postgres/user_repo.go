package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hireprep/hireprep/internal/models"
	"github.com/hireprep/hireprep/internal/utils"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// SetFence overwrites all four fence fields (last-writer-wins).
	SetFence(ctx context.Context, userID, sessionID, deviceInfo string, at time.Time) error
	// TouchFence refreshes session_last_active.
	TouchFence(ctx context.Context, userID string, at time.Time) error
	// ClearFence nulls out all four fence fields.
	ClearFence(ctx context.Context, userID string) error

	IncrementInterviews(ctx context.Context, userID string) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &u, err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &u, err
}

func (r *userRepo) SetFence(ctx context.Context, userID, sessionID, deviceInfo string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"active_session_id":   sessionID,
			"session_device_info": deviceInfo,
			"session_start_time":  at,
			"session_last_active": at,
		}).Error
}

func (r *userRepo) TouchFence(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("session_last_active", at).Error
}

func (r *userRepo) ClearFence(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"active_session_id":   "",
			"session_device_info": "",
			"session_start_time":  nil,
			"session_last_active": nil,
		}).Error
}

func (r *userRepo) IncrementInterviews(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("interviews_taken", gorm.Expr("interviews_taken + 1")).Error
}
