package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice represents a billing invoice
type Invoice struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	CompanyID uint            `json:"companyId" gorm:"index;not null"`
	ContactID *uint           `json:"contactId,omitempty" gorm:"index"`
	Number    string          `json:"number" gorm:"type:varchar(50);index"`
	Status    InvoiceStatus   `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	Date      time.Time       `json:"date"`
	DueDate   *time.Time      `json:"dueDate,omitempty"`
	Total     decimal.Decimal `json:"total" gorm:"type:numeric(14,4);not null;default:0"`
	Notes     string          `json:"notes" gorm:"type:text"`
	Items     []InvoiceItem   `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
}

// InvoiceItem represents a line item on an invoice
type InvoiceItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	InvoiceID   uint            `json:"invoiceId" gorm:"index;not null"`
	ProductID   *uint           `json:"productId,omitempty" gorm:"index"`
	Description string          `json:"description" gorm:"type:varchar(500)"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:numeric(12,3);not null;default:1"`
	UnitPrice   decimal.Decimal `json:"unitPrice" gorm:"type:numeric(14,4);not null;default:0"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// LineTotal is quantity times unit price
func (i *InvoiceItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}
