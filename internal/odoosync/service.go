// Package odoosync imports and exports contacts and products between a
// company and its Odoo instance.
package odoosync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/pkg/odoo"
	"github.com/suteetoe/erp/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	partnerFields = []string{"id", "name", "email", "phone", "vat", "street", "city"}
	productFields = []string{"id", "name", "default_code", "list_price"}
)

// Result summarises an import
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Service runs Odoo synchronisation for the tenant's company
type Service struct {
	db      *gorm.DB
	timeout time.Duration
	log     *zap.Logger
}

// NewService creates an Odoo sync service
func NewService(db *gorm.DB, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{db: db, timeout: timeout, log: log}
}

func (s *Service) client(ctx context.Context, tc tenant.Context) (*odoo.Client, error) {
	var company model.Company
	if err := s.db.WithContext(ctx).First(&company, tc.CompanyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("company %d not found", tc.CompanyID)
		}
		return nil, apperr.Internal(err, "failed to load company")
	}
	if !company.HasOdoo() {
		return nil, apperr.InvalidRequest("Odoo is not configured for this company")
	}
	return odoo.NewClient(company.OdooURL, company.OdooDB, company.OdooUsername, company.OdooPassword, s.timeout, s.log), nil
}

func record(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	prometheus.RecordOdooOperation(op, outcome)
}

// ImportContacts upserts res.partner records as contacts, keyed by odoo id
func (s *Service) ImportContacts(ctx context.Context, tc tenant.Context) (res *Result, err error) {
	defer func() { record("import_contacts", err) }()

	c, err := s.client(ctx, tc)
	if err != nil {
		return nil, err
	}
	partners, err := c.SearchRead(ctx, "res.partner", nil, partnerFields, 0)
	if err != nil {
		return nil, apperr.Internal(err, "Odoo request failed: %v", err)
	}

	res = &Result{}
	companyID := tc.CompanyID
	for _, p := range partners {
		odooID := int64Field(p, "id")
		var contact model.Contact
		err := s.db.WithContext(ctx).Where("company_id = ? AND odoo_id = ?", companyID, odooID).First(&contact).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			contact = model.Contact{UserID: tc.OwnerID, CompanyID: &companyID, OdooID: &odooID}
			res.Created++
		case err != nil:
			return nil, apperr.Internal(err, "failed to load contact")
		default:
			res.Updated++
		}
		contact.Name = stringField(p, "name")
		contact.Email = stringField(p, "email")
		contact.Phone = stringField(p, "phone")
		contact.VAT = stringField(p, "vat")
		contact.Street = stringField(p, "street")
		contact.City = stringField(p, "city")
		if err := s.db.WithContext(ctx).Save(&contact).Error; err != nil {
			return nil, apperr.Internal(err, "failed to save contact")
		}
	}

	s.log.Info("Imported contacts from Odoo",
		zap.Uint("company_id", companyID),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated))
	return res, nil
}

// ImportProducts upserts product.product records, keyed by odoo id
func (s *Service) ImportProducts(ctx context.Context, tc tenant.Context) (res *Result, err error) {
	defer func() { record("import_products", err) }()

	c, err := s.client(ctx, tc)
	if err != nil {
		return nil, err
	}
	records, err := c.SearchRead(ctx, "product.product", nil, productFields, 0)
	if err != nil {
		return nil, apperr.Internal(err, "Odoo request failed: %v", err)
	}

	res = &Result{}
	for _, r := range records {
		odooID := int64Field(r, "id")
		var product model.Product
		err := s.db.WithContext(ctx).Where("company_id = ? AND odoo_id = ?", tc.CompanyID, odooID).First(&product).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			product = model.Product{CompanyID: tc.CompanyID, OdooID: &odooID}
			res.Created++
		case err != nil:
			return nil, apperr.Internal(err, "failed to load product")
		default:
			res.Updated++
		}
		product.Name = stringField(r, "name")
		product.SKU = stringField(r, "default_code")
		if price, ok := r["list_price"].(float64); ok {
			product.Price = decimal.NewFromFloat(price)
		}
		if err := s.db.WithContext(ctx).Save(&product).Error; err != nil {
			return nil, apperr.Internal(err, "failed to save product")
		}
	}

	s.log.Info("Imported products from Odoo",
		zap.Uint("company_id", tc.CompanyID),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated))
	return res, nil
}

// ExportContact creates or updates the res.partner of a contact and stores
// the Odoo id on the contact
func (s *Service) ExportContact(ctx context.Context, tc tenant.Context, sharedIDs []uint, contactID uint) (contact *model.Contact, err error) {
	defer func() { record("export_contact", err) }()

	contact = &model.Contact{}
	err = s.db.WithContext(ctx).Where("user_id IN ?", sharedIDs).First(contact, contactID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("contact %d not found", contactID)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load contact")
	}

	c, err := s.client(ctx, tc)
	if err != nil {
		return nil, err
	}

	values := map[string]interface{}{
		"name":   contact.Name,
		"email":  contact.Email,
		"phone":  contact.Phone,
		"vat":    contact.VAT,
		"street": contact.Street,
		"city":   contact.City,
	}
	if contact.OdooID != nil {
		if err := c.Write(ctx, "res.partner", []int64{*contact.OdooID}, values); err != nil {
			return nil, apperr.Internal(err, "Odoo request failed: %v", err)
		}
		return contact, nil
	}

	id, err := c.Create(ctx, "res.partner", values)
	if err != nil {
		return nil, apperr.Internal(err, "Odoo request failed: %v", err)
	}
	contact.OdooID = &id
	if err := s.db.WithContext(ctx).Model(contact).Update("odoo_id", id).Error; err != nil {
		return nil, apperr.Internal(err, "failed to store Odoo id")
	}
	s.log.Info("Exported contact to Odoo", zap.Uint("contact_id", contact.ID), zap.Int64("odoo_id", id))
	return contact, nil
}

// Odoo returns false for empty char fields
func stringField(r map[string]interface{}, key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil, bool:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func int64Field(r map[string]interface{}, key string) int64 {
	if v, ok := r[key].(float64); ok {
		return int64(v)
	}
	return 0
}
