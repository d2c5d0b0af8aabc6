package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the single normalized representation of an account role.
// Incoming strings are parsed once at the boundary with ParseRole.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleBroker  Role = "broker"
	RoleBuilder Role = "builder"
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a role string and rejects unknown values.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleGuest:
		return RoleGuest, nil
	case RoleBroker:
		return RoleBroker, nil
	case RoleBuilder:
		return RoleBuilder, nil
	case RoleOwner:
		return RoleOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Account statuses. PENDING_APPROVAL accounts exist but cannot transact
// until their registration payment is approved.
const (
	AccountStatusPendingApproval = "PENDING_APPROVAL"
	AccountStatusActive          = "ACTIVE"
	AccountStatusDisabled        = "DISABLED"
)

type Account struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	Phone        string `json:"phone" db:"phone"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	// RequestedRole is the role chosen at registration, granted when the
	// registration fee payment is approved.
	RequestedRole *Role     `json:"requested_role,omitempty" db:"requested_role"`
	Status        string    `json:"status" db:"status"`
	Balance       int64     `json:"balance" db:"balance"` // minor units
	Version       int       `json:"version" db:"version"` // for optimistic locking
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
