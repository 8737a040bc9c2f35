package specification

import (
	"gorm.io/gorm"

	"github.com/google/uuid"
)

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

// UserOwnedBy scopes sessions and notifications to their owner. Every
// user-facing listing goes through it.
type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// ActiveUsers excludes blocked accounts.
type ActiveUsers struct{}

func (s ActiveUsers) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", "active")
}

type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}
