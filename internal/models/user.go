package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Account roles. A customer owns exactly one support conversation (keyed by
// their user id); an agent owns none and attaches to customers' conversations.
const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
)

// User represents an account known to the support desk. The surrounding
// brokerage product owns registration and login; this subsystem only needs a
// stable id, a role, and the display info the agent inbox renders.
type User struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `gorm:"type:text;not null" json:"name"`
	Role  string `gorm:"type:text;not null;default:customer" json:"role"`
	// Tags carries support labels such as "vip" or "kyc-pending".
	Tags pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"`
}

// BeforeCreate is a GORM hook that assigns a UUID when the ID is unset.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return
}

// IsAgent reports whether the account may attach to arbitrary conversations.
func (u *User) IsAgent() bool { return u.Role == RoleAgent }
