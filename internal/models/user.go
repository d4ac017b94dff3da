package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "GURU"
	RoleStudent UserRole = "SISWA"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
)

type User struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	FullName string     `json:"full_name" gorm:"not null;size:100"`
	Email    string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole   `json:"role" gorm:"not null;size:10;index"`
	NIP      *string    `json:"nip" gorm:"size:30"`
	Status   UserStatus `json:"status" gorm:"default:ACTIVE;size:10"`

	// External identity (Casdoor subject)
	ExternalID *string `json:"-" gorm:"uniqueIndex;size:255"`

	// Profile info
	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// Principal is the authenticated caller an operation is performed for.
type Principal struct {
	UserID uint     `json:"user_id"`
	Role   UserRole `json:"role"`
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) IsTeacher() bool { return p.Role == RoleTeacher }
func (p Principal) IsStudent() bool { return p.Role == RoleStudent }
