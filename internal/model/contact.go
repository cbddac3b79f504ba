package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contact is a customer or supplier. Visible to every principal of the
// tenant that created it.
type Contact struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"userId" gorm:"index;not null"`
	CompanyID *uint          `json:"companyId,omitempty" gorm:"index"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Email     string         `json:"email" gorm:"type:varchar(255)"`
	Phone     string         `json:"phone" gorm:"type:varchar(50)"`
	VAT       string         `json:"vat" gorm:"type:varchar(50)"`
	Street    string         `json:"street" gorm:"type:varchar(255)"`
	City      string         `json:"city" gorm:"type:varchar(100)"`
	OdooID    *int64         `json:"odooId,omitempty" gorm:"index"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Product is a sellable item
type Product struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	CompanyID uint            `json:"companyId" gorm:"index;not null"`
	Name      string          `json:"name" gorm:"type:varchar(255);not null"`
	SKU       string          `json:"sku" gorm:"type:varchar(100);index"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(14,4);not null;default:0"`
	OdooID    *int64          `json:"odooId,omitempty" gorm:"index"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
}
