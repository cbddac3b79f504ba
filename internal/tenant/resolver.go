// Package tenant maps an authenticated principal to the tenant whose data it
// may see and mutate.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Context is resolved once per request and passed explicitly to services
type Context struct {
	PrincipalID uint   `json:"principalId"`
	OwnerID     uint   `json:"ownerId"`
	CompanyID   uint   `json:"companyId"`
	Role        string `json:"role"`
}

// IsAdmin reports whether the principal may use administrative operations
func (c Context) IsAdmin() bool {
	return c.Role == model.RoleOwner || c.Role == model.RoleAdmin
}

// Resolver resolves effective owners from the users table
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a tenant resolver
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

func (r *Resolver) principal(ctx context.Context, principalID uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Select("id", "created_by_id", "role", "active").First(&user, principalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("principal %d not found", principalID)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load principal")
	}
	return &user, nil
}

func ownerOf(user *model.User) uint {
	if user.CreatedByID != nil {
		return *user.CreatedByID
	}
	return user.ID
}

// ResolveOwner returns the id of the principal that owns the tenant of
// principalID. Owners resolve to themselves.
func (r *Resolver) ResolveOwner(ctx context.Context, principalID uint) (uint, error) {
	user, err := r.principal(ctx, principalID)
	if err != nil {
		return 0, err
	}
	return ownerOf(user), nil
}

// ResolveSharedIDs returns the owner id followed by the ids of every member
// the owner provisioned. The set is the same for any principal of the tenant.
func (r *Resolver) ResolveSharedIDs(ctx context.Context, principalID uint) ([]uint, error) {
	ownerID, err := r.ResolveOwner(ctx, principalID)
	if err != nil {
		return nil, err
	}

	var members []uint
	err = r.db.WithContext(ctx).Model(&model.User{}).
		Where("created_by_id = ? AND id <> ?", ownerID, ownerID).
		Order("id").
		Pluck("id", &members).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load tenant members")
	}

	return append([]uint{ownerID}, members...), nil
}

// Resolve builds the request tenant context. A non-zero companyID selects
// that company, which must belong to the owner; otherwise the owner's
// default company is used.
func (r *Resolver) Resolve(ctx context.Context, principalID, companyID uint) (Context, error) {
	user, err := r.principal(ctx, principalID)
	if err != nil {
		return Context{}, err
	}
	if !user.Active {
		return Context{}, apperr.Unauthorized("principal is disabled")
	}

	tc := Context{PrincipalID: user.ID, OwnerID: ownerOf(user), Role: user.Role}

	var company model.Company
	q := r.db.WithContext(ctx).Select("id").Where("owner_id = ?", tc.OwnerID)
	if companyID != 0 {
		err = q.Where("id = ?", companyID).First(&company).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Context{}, apperr.InvalidReference("company %d does not belong to this tenant", companyID)
		}
	} else {
		err = q.Order("is_default desc").Order("id").First(&company).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Context{}, apperr.NotFound("tenant has no company")
		}
	}
	if err != nil {
		return Context{}, apperr.Internal(err, "failed to load company")
	}
	tc.CompanyID = company.ID

	zap.L().Debug("tenant context resolved",
		zap.Uint("principal_id", tc.PrincipalID),
		zap.Uint("owner_id", tc.OwnerID),
		zap.Uint("company_id", tc.CompanyID))
	return tc, nil
}

// String implements fmt.Stringer for log lines
func (c Context) String() string {
	return fmt.Sprintf("principal=%d owner=%d company=%d role=%s", c.PrincipalID, c.OwnerID, c.CompanyID, c.Role)
}
