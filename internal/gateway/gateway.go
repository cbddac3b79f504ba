// Package gateway is a token-gated CRUD passthrough over a fixed set of
// entity kinds. Records are not scoped to the calling company; callers
// narrow results with their own filters.
package gateway

import (
	"context"
	"errors"
	"strconv"

	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"gorm.io/gorm"
)

// Gateway dispatches an entity kind to its repository
type Gateway struct {
	db    *gorm.DB
	repos map[Kind]Repository
}

// New builds the repository for every allow-listed kind
func New(db *gorm.DB) *Gateway {
	return &Gateway{
		db: db,
		repos: map[Kind]Repository{
			KindUser:        newRepository[model.User](db, KindUser),
			KindCompany:     newRepository[model.Company](db, KindCompany),
			KindContact:     newRepository[model.Contact](db, KindContact),
			KindProduct:     newRepository[model.Product](db, KindProduct),
			KindInvoice:     newRepository[model.Invoice](db, KindInvoice),
			KindInvoiceItem: newRepository[model.InvoiceItem](db, KindInvoiceItem),
			KindAttendance:  newRepository[model.Attendance](db, KindAttendance),
		},
	}
}

// Repository returns the repository of a parsed kind
func (g *Gateway) Repository(kind Kind) Repository {
	return g.repos[kind]
}

// Authenticate returns the company owning an enabled API key
func (g *Gateway) Authenticate(ctx context.Context, apiKey string) (*model.Company, error) {
	if apiKey == "" {
		return nil, apperr.Unauthorized("API token required")
	}
	var company model.Company
	err := g.db.WithContext(ctx).Where("api_key = ? AND api_enabled = ?", apiKey, true).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid API token")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to authenticate API token")
	}
	return &company, nil
}

// CompanyInvoices lists invoices of a single company, read-only
func (g *Gateway) CompanyInvoices(ctx context.Context, companyID uint, status string, limit, skip int) (*Page, error) {
	filters := map[string]string{"company_id": strconv.FormatUint(uint64(companyID), 10)}
	if status != "" {
		filters["status"] = status
	}
	return g.repos[KindInvoice].List(ctx, ListQuery{Filters: filters, Limit: limit, Skip: skip})
}
