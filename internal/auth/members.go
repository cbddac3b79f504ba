package auth

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MemberInput provisions a principal inside the caller's tenant
type MemberInput struct {
	Email      string           `json:"email"`
	Password   string           `json:"password"`
	Name       string           `json:"name"`
	Role       string           `json:"role"`
	HourlyRate *decimal.Decimal `json:"hourlyRate"`
}

// MemberUpdate changes a member. Nil fields are left untouched.
type MemberUpdate struct {
	Name       *string          `json:"name"`
	Role       *string          `json:"role"`
	Active     *bool            `json:"active"`
	HourlyRate *decimal.Decimal `json:"hourlyRate"`
}

func validMemberRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleMember
}

// CreateMember provisions a principal attributed to the tenant owner
func (s *Service) CreateMember(ctx context.Context, tc tenant.Context, in MemberInput) (*model.User, error) {
	if !tc.IsAdmin() {
		return nil, apperr.Forbidden("only owners and admins can add members")
	}
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperr.InvalidRequest("email is required")
	}
	role := in.Role
	if role == "" {
		role = model.RoleMember
	}
	if !validMemberRole(role) {
		return nil, apperr.InvalidRequest("role must be admin or member")
	}
	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("member_create")(time.Now())

	ownerID := tc.OwnerID
	user := &model.User{
		Email:         email,
		Name:          in.Name,
		Password:      hashed,
		Role:          role,
		CreatedByID:   &ownerID,
		Active:        true,
		EmailVerified: true,
	}
	if in.HourlyRate != nil {
		user.HourlyRate = decimal.NewNullDecimal(*in.HourlyRate)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Internal(err, "failed to create member")
	}

	s.log.Info("Member provisioned",
		zap.Uint("id", user.ID),
		zap.Uint("owner_id", ownerID),
		zap.String("role", role))
	return user, nil
}

// ListMembers returns the principals provisioned by the tenant owner
func (s *Service) ListMembers(ctx context.Context, tc tenant.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).Where("created_by_id = ?", tc.OwnerID).Order("id").Find(&users).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to list members")
	}
	return users, nil
}

// UpdateMember changes role, rate or the active flag of a member.
// Deactivated members keep their data but can no longer authenticate.
func (s *Service) UpdateMember(ctx context.Context, tc tenant.Context, id uint, in MemberUpdate) (*model.User, error) {
	if !tc.IsAdmin() {
		return nil, apperr.Forbidden("only owners and admins can change members")
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("created_by_id = ?", tc.OwnerID).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("member %d not found", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load member")
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Role != nil {
		if !validMemberRole(*in.Role) {
			return nil, apperr.InvalidRequest("role must be admin or member")
		}
		updates["role"] = *in.Role
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}
	if in.HourlyRate != nil {
		updates["hourly_rate"] = decimal.NewNullDecimal(*in.HourlyRate)
	}
	if len(updates) == 0 {
		return &user, nil
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, apperr.Internal(err, "failed to update member")
	}
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, apperr.Internal(err, "failed to reload member")
	}
	return &user, nil
}
