package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string     `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email          string     `gorm:"size:128;not null;uniqueIndex" json:"email"`
	FullName       string     `gorm:"size:128;not null" json:"full_name"`
	PasswordHash   string     `gorm:"size:255;not null" json:"-"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	IsAdmin        bool       `gorm:"not null;default:false" json:"is_admin"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BelongsTo reports whether the user is a member of orgID.
func (u *User) BelongsTo(orgID uuid.UUID) bool {
	return u != nil && u.OrganizationID != nil && *u.OrganizationID == orgID
}
