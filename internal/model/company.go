package model

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Company is a tenant: the unit of data isolation. Numbering counters live
// on this row and are only advanced through the sequence allocator.
type Company struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	OwnerID   uint   `json:"ownerId" gorm:"index;not null"`
	Name      string `json:"name" gorm:"type:varchar(255);not null"`
	IsDefault bool   `json:"isDefault" gorm:"not null;default:false"`

	PaymentEntradaPrefix     string `json:"paymentEntradaPrefix" gorm:"type:varchar(20);not null;default:'ENT'"`
	PaymentEntradaNextNumber int64  `json:"paymentEntradaNextNumber" gorm:"not null;default:1"`
	PaymentSalidaPrefix      string `json:"paymentSalidaPrefix" gorm:"type:varchar(20);not null;default:'SAL'"`
	PaymentSalidaNextNumber  int64  `json:"paymentSalidaNextNumber" gorm:"not null;default:1"`

	OdooURL      string `json:"odooUrl" gorm:"type:varchar(255)"`
	OdooDB       string `json:"odooDb" gorm:"type:varchar(100)"`
	OdooUsername string `json:"odooUsername" gorm:"type:varchar(100)"`
	OdooPassword string `json:"-" gorm:"type:varchar(255)"`

	SMTPHost     string `json:"smtpHost" gorm:"type:varchar(255)"`
	SMTPPort     int    `json:"smtpPort"`
	SMTPUser     string `json:"smtpUser" gorm:"type:varchar(255)"`
	SMTPPassword string `json:"-" gorm:"type:varchar(255)"`
	SMTPFrom     string `json:"smtpFrom" gorm:"type:varchar(255)"`

	APIKey     string `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	APIEnabled bool   `json:"apiEnabled" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate issues an API key so the unique index never sees blanks
func (c *Company) BeforeCreate(_ *gorm.DB) error {
	if c.APIKey == "" {
		c.APIKey = NewAPIKey()
	}
	return nil
}

// HasOdoo reports whether Odoo credentials are configured
func (c *Company) HasOdoo() bool {
	return c.OdooURL != "" && c.OdooDB != "" && c.OdooUsername != ""
}

// NewAPIKey returns a fresh opaque tenant token
func NewAPIKey() string {
	return "erp_" + ksuid.New().String()
}
