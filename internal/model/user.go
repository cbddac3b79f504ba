package model

import (
	"time"

	"github.com/segmentio/ksuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Roles a principal can hold inside its tenant
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is an authenticated principal. A principal with CreatedByID set is a
// member of the tenant owned by that principal and never owns data itself.
type User struct {
	ID              uint                `json:"id" gorm:"primaryKey"`
	Email           string              `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name            string              `json:"name" gorm:"type:varchar(255)"`
	Password        string              `json:"-" gorm:"type:varchar(255)"`
	Role            string              `json:"role" gorm:"type:varchar(20);not null;default:'owner'"`
	CreatedByID     *uint               `json:"createdById,omitempty" gorm:"index"`
	Active          bool                `json:"active" gorm:"not null;default:true"`
	EmailVerified   bool                `json:"emailVerified" gorm:"not null;default:false"`
	HourlyRate      decimal.NullDecimal `json:"hourlyRate" gorm:"type:numeric(12,2)"`
	AttendanceToken string              `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt      `json:"-" gorm:"index"`
}

// BeforeCreate issues the public attendance token
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.AttendanceToken == "" {
		u.AttendanceToken = ksuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleOwner
	}
	return nil
}

// IsMember reports whether the principal was provisioned by a tenant owner
func (u *User) IsMember() bool {
	return u.CreatedByID != nil
}

// CanAdminister reports whether the principal may bypass attendance guards
// and manage tenant settings.
func (u *User) CanAdminister() bool {
	return u.Role == RoleOwner || u.Role == RoleAdmin
}
