package model

import "time"

// Purposes of a one-time code
const (
	CodePasswordReset = "reset"
	CodeEmailVerify   = "verify"
)

// VerificationCode is a time-boxed 6-digit code sent by email
type VerificationCode struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"userId" gorm:"index;not null"`
	Purpose   string     `json:"purpose" gorm:"type:varchar(10);not null;index"`
	Code      string     `json:"-" gorm:"type:varchar(6);not null"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null"`
	UsedAt    *time.Time `json:"usedAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Usable reports whether the code can still be redeemed at now
func (v *VerificationCode) Usable(now time.Time) bool {
	return v.UsedAt == nil && now.Before(v.ExpiresAt)
}
