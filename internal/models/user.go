package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User is the account row. Besides credentials it carries the session fence
// fields: at most one ActiveSessionID is considered valid at a time, and
// creating a new session overwrites the previous one unconditionally
// (last-writer-wins, not a mutex).
type User struct {
	ID           string   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string   `gorm:"column:email;type:text;uniqueIndex" json:"email"`
	PasswordHash string   `gorm:"column:password_hash;type:text" json:"-"`
	Role         UserRole `gorm:"column:role;type:text;default:user" json:"role"`

	EmailVerified   bool   `gorm:"column:email_verified" json:"email_verified"`
	Plan            string `gorm:"column:plan;type:text;default:free" json:"plan"`
	InterviewsTaken int    `gorm:"column:interviews_taken;default:0" json:"interviews_taken"`

	// session fence
	ActiveSessionID   string     `gorm:"column:active_session_id;type:text" json:"-"`
	SessionDeviceInfo string     `gorm:"column:session_device_info;type:text" json:"-"`
	SessionStartTime  *time.Time `gorm:"column:session_start_time;type:timestamptz" json:"-"`
	SessionLastActive *time.Time `gorm:"column:session_last_active;type:timestamptz" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (User) TableName() string { return "users" }
