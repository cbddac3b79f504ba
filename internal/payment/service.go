// Package payment creates numbered payments and drives their lifecycle.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/sequence"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateInput is the payload of a single payment
type CreateInput struct {
	Type         model.PaymentType `json:"type"`
	Amount       decimal.Decimal   `json:"amount"`
	Date         Date              `json:"date"`
	Description  string            `json:"description"`
	ContactID    *uint             `json:"contactId"`
	ProjectID    *uint             `json:"projectId"`
	JournalID    *uint             `json:"journalId"`
	BudgetItemID *uint             `json:"budgetItemId"`
	PropertyID   *uint             `json:"propertyId"`
}

// DistributeInput splits one amount evenly across properties
type DistributeInput struct {
	Type        model.PaymentType `json:"type"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Date        Date              `json:"date"`
	Description string            `json:"description"`
	PropertyIDs []uint            `json:"propertyIds"`
	ContactID   *uint             `json:"contactId"`
	ProjectID   *uint             `json:"projectId"`
}

// ListFilter narrows List results
type ListFilter struct {
	Type  model.PaymentType
	State model.PaymentState
	Limit int
	Skip  int
}

// Service manages payments of the tenant's company
type Service struct {
	db       *gorm.DB
	resolver *tenant.Resolver
	log      *zap.Logger
}

// NewService creates a payment service
func NewService(db *gorm.DB, resolver *tenant.Resolver, log *zap.Logger) *Service {
	return &Service{db: db, resolver: resolver, log: log}
}

// Create allocates the next number and stores a draft payment in the same
// transaction, so a failed insert never consumes a number.
func (s *Service) Create(ctx context.Context, tc tenant.Context, in CreateInput) (*model.Payment, error) {
	if !in.Type.Valid() {
		return nil, apperr.InvalidRequest("type must be ENTRADA or SALIDA")
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.InvalidRequest("amount must be greater than zero")
	}
	if in.Date.IsZero() {
		in.Date.Time = time.Now()
	}
	if err := s.checkReferences(ctx, tc, in.ContactID, in.ProjectID, in.PropertyID); err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("payment_create")(time.Now())

	p := &model.Payment{
		CompanyID:    tc.CompanyID,
		Type:         in.Type,
		State:        model.PaymentDraft,
		Amount:       in.Amount,
		Date:         in.Date.Time,
		Description:  in.Description,
		ContactID:    in.ContactID,
		ProjectID:    in.ProjectID,
		JournalID:    in.JournalID,
		BudgetItemID: in.BudgetItemID,
		PropertyID:   in.PropertyID,
		CreatedByID:  tc.PrincipalID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := sequence.Allocate(ctx, tx, tc.CompanyID, in.Type)
		if err != nil {
			return err
		}
		p.Number = number
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, wrap(err, "failed to create payment")
	}

	prometheus.RecordPaymentOperation("create")
	s.log.Info("Payment created",
		zap.Uint("id", p.ID),
		zap.String("number", p.Number),
		zap.Uint("company_id", p.CompanyID),
		zap.String("amount", p.Amount.String()))
	return p, nil
}

// Distribute creates one draft payment per property. The total is divided
// evenly and every payment receives the same share.
func (s *Service) Distribute(ctx context.Context, tc tenant.Context, in DistributeInput) ([]model.Payment, error) {
	if !in.Type.Valid() {
		return nil, apperr.InvalidRequest("type must be ENTRADA or SALIDA")
	}
	if !in.TotalAmount.IsPositive() {
		return nil, apperr.InvalidRequest("totalAmount must be greater than zero")
	}
	if len(in.PropertyIDs) == 0 {
		return nil, apperr.InvalidRequest("propertyIds is required")
	}
	if in.Date.IsZero() {
		in.Date.Time = time.Now()
	}
	if err := s.checkReferences(ctx, tc, in.ContactID, in.ProjectID, nil); err != nil {
		return nil, err
	}

	var properties []model.Property
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND id IN ?", tc.CompanyID, in.PropertyIDs).
		Order("id").
		Find(&properties).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load properties")
	}
	if len(properties) != len(uniq(in.PropertyIDs)) {
		return nil, apperr.InvalidReference("every property must belong to this company")
	}

	defer prometheus.TrackDBOperation("payment_distribute")(time.Now())

	share := in.TotalAmount.Div(decimal.NewFromInt(int64(len(properties))))
	payments := make([]model.Payment, len(properties))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		numbers, err := sequence.AllocateN(ctx, tx, tc.CompanyID, in.Type, len(properties))
		if err != nil {
			return err
		}
		for i, prop := range properties {
			propertyID := prop.ID
			payments[i] = model.Payment{
				CompanyID:   tc.CompanyID,
				Type:        in.Type,
				Number:      numbers[i],
				State:       model.PaymentDraft,
				Amount:      share,
				Date:        in.Date.Time,
				Description: fmt.Sprintf("%s (%s)", in.Description, prop.Name),
				ContactID:   in.ContactID,
				ProjectID:   in.ProjectID,
				PropertyID:  &propertyID,
				CreatedByID: tc.PrincipalID,
			}
		}
		return tx.Create(&payments).Error
	})
	if err != nil {
		return nil, wrap(err, "failed to distribute payment")
	}

	prometheus.RecordPaymentOperation("distribute")
	s.log.Info("Payment distributed",
		zap.Int("count", len(payments)),
		zap.Uint("company_id", tc.CompanyID),
		zap.String("share", share.String()))
	return payments, nil
}

// Validate moves a draft payment to VALIDADO
func (s *Service) Validate(ctx context.Context, tc tenant.Context, id uint) (*model.Payment, error) {
	p, err := s.Get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	if p.State != model.PaymentDraft {
		return nil, apperr.Conflict("payment %s is already validated", p.Number)
	}

	p.State = model.PaymentValidated
	if err := s.db.WithContext(ctx).Model(p).Update("state", p.State).Error; err != nil {
		return nil, apperr.Internal(err, "failed to validate payment")
	}
	prometheus.RecordPaymentOperation("validate")
	return p, nil
}

// Delete removes a draft payment. Its number stays consumed.
func (s *Service) Delete(ctx context.Context, tc tenant.Context, id uint) error {
	p, err := s.Get(ctx, tc, id)
	if err != nil {
		return err
	}
	if p.State != model.PaymentDraft {
		return apperr.Conflict("only draft payments can be deleted")
	}
	if err := s.db.WithContext(ctx).Delete(p).Error; err != nil {
		return apperr.Internal(err, "failed to delete payment")
	}
	prometheus.RecordPaymentOperation("delete")
	return nil
}

// Get returns a payment of the tenant's company
func (s *Service) Get(ctx context.Context, tc tenant.Context, id uint) (*model.Payment, error) {
	var p model.Payment
	err := s.db.WithContext(ctx).Where("company_id = ?", tc.CompanyID).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("payment %d not found", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load payment")
	}
	return &p, nil
}

// List returns the company's payments, newest first
func (s *Service) List(ctx context.Context, tc tenant.Context, f ListFilter) ([]model.Payment, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Payment{}).Where("company_id = ?", tc.CompanyID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to count payments")
	}

	var payments []model.Payment
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Offset(f.Skip).Order("date desc").Order("id desc").Find(&payments).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to list payments")
	}
	return payments, total, nil
}

// checkReferences rejects links that point outside the tenant
func (s *Service) checkReferences(ctx context.Context, tc tenant.Context, contactID, projectID, propertyID *uint) error {
	db := s.db.WithContext(ctx)
	if contactID != nil {
		shared, err := s.resolver.ResolveSharedIDs(ctx, tc.PrincipalID)
		if err != nil {
			return err
		}
		if !exists(db.Model(&model.Contact{}).Where("id = ? AND user_id IN ?", *contactID, shared)) {
			return apperr.InvalidReference("contact %d does not belong to this tenant", *contactID)
		}
	}
	if projectID != nil && !exists(db.Model(&model.Project{}).Where("id = ? AND company_id = ?", *projectID, tc.CompanyID)) {
		return apperr.InvalidReference("project %d does not belong to this company", *projectID)
	}
	if propertyID != nil && !exists(db.Model(&model.Property{}).Where("id = ? AND company_id = ?", *propertyID, tc.CompanyID)) {
		return apperr.InvalidReference("property %d does not belong to this company", *propertyID)
	}
	return nil
}

func exists(q *gorm.DB) bool {
	var n int64
	return q.Count(&n).Error == nil && n > 0
}

func uniq(ids []uint) map[uint]struct{} {
	m := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func wrap(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("document number already issued")
	}
	return apperr.Internal(err, "%s", msg)
}
