package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentType selects the numbering sequence of a payment
type PaymentType string

const (
	PaymentEntrada PaymentType = "ENTRADA"
	PaymentSalida  PaymentType = "SALIDA"
)

// Valid reports whether t is a known payment type
func (t PaymentType) Valid() bool {
	return t == PaymentEntrada || t == PaymentSalida
}

// PaymentState is the lifecycle state of a payment
type PaymentState string

const (
	PaymentDraft     PaymentState = "BORRADOR"
	PaymentValidated PaymentState = "VALIDADO"
)

// Payment is a numbered document. Number is unique per company and type and
// is never reused, even after the payment is deleted.
type Payment struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	CompanyID    uint            `json:"companyId" gorm:"not null;uniqueIndex:idx_payment_number,priority:1"`
	Type         PaymentType     `json:"type" gorm:"type:varchar(10);not null;uniqueIndex:idx_payment_number,priority:2"`
	Number       string          `json:"number" gorm:"type:varchar(40);not null;uniqueIndex:idx_payment_number,priority:3"`
	State        PaymentState    `json:"state" gorm:"type:varchar(10);not null;default:'BORRADOR'"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:numeric(14,4);not null"`
	Date         time.Time       `json:"date" gorm:"not null"`
	Description  string          `json:"description" gorm:"type:text"`
	ContactID    *uint           `json:"contactId,omitempty" gorm:"index"`
	ProjectID    *uint           `json:"projectId,omitempty" gorm:"index"`
	JournalID    *uint           `json:"journalId,omitempty"`
	BudgetItemID *uint           `json:"budgetItemId,omitempty"`
	PropertyID   *uint           `json:"propertyId,omitempty" gorm:"index"`
	CreatedByID  uint            `json:"createdById" gorm:"index"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt  `json:"-" gorm:"index"`
}

// Property is a cost-distribution target (a unit, a building, a site)
type Property struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CompanyID uint           `json:"companyId" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Address   string         `json:"address" gorm:"type:text"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
