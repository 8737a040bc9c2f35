package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string
type UserStatus string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

type User struct {
	Id           uuid.UUID
	Email        string
	PasswordHash *string
	FullName     string
	Role         UserRole
	Status       UserStatus
	// Preferred answer language: "ar" (default) or "fr".
	Language  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
