// Package auth implements the principal lifecycle: registration, login,
// email verification, password reset and member provisioning.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/pkg/config"
	"github.com/suteetoe/erp/pkg/jwtutil"
	"github.com/suteetoe/erp/pkg/mailer"
	"github.com/suteetoe/erp/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterInput is the self-registration payload
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
}

// Service handles principal lifecycle operations
type Service struct {
	db     *gorm.DB
	jwt    *jwtutil.JWTUtil
	mail   mailer.Mailer
	cfg    config.AuthConfig
	log    *zap.Logger
	now    func() time.Time
	codeFn func() (string, error)
}

// NewService creates an auth service
func NewService(db *gorm.DB, jwt *jwtutil.JWTUtil, mail mailer.Mailer, cfg config.AuthConfig, log *zap.Logger) *Service {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 15 * time.Minute
	}
	return &Service{db: db, jwt: jwt, mail: mail, cfg: cfg, log: log, now: time.Now, codeFn: newCode}
}

// newCode returns a uniformly random 6-digit code
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", apperr.InvalidRequest("password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal(err, "failed to hash password")
	}
	return string(hashed), nil
}

// Register creates a tenant owner and its default company. Returns
// Forbidden when self-registration is disabled.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	prometheus.RegisterCounter.Inc()
	if !s.cfg.RegistrationEnabled {
		prometheus.RecordAuthError("registration_disabled")
		return nil, apperr.Forbidden("registration is disabled")
	}

	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return nil, apperr.InvalidRequest("email and password are required")
	}
	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	companyName := strings.TrimSpace(in.CompanyName)
	if companyName == "" {
		companyName = name + "'s company"
	}

	defer prometheus.TrackDBOperation("register")(time.Now())

	user := &model.User{
		Email:         email,
		Name:          name,
		Password:      hashed,
		Role:          model.RoleOwner,
		Active:        true,
		EmailVerified: !s.cfg.EmailVerificationRequired,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("email already registered")
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&model.Company{OwnerID: user.ID, Name: companyName, IsDefault: true}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = apperr.Conflict("email already registered")
		}
		if apperr.Is(err, apperr.KindConflict) {
			prometheus.RecordAuthError("email_already_exists")
			return nil, err
		}
		return nil, classify(err, "registration failed")
	}

	s.log.Info("Principal registered", zap.String("email", user.Email), zap.Uint("id", user.ID))

	if s.cfg.EmailVerificationRequired {
		s.issueCode(ctx, user, model.CodeEmailVerify,
			"Verify your email",
			"Your verification code is %s. It expires in %s.")
	}
	return user, nil
}

// Login checks credentials and returns a signed token
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	prometheus.LoginCounter.Inc()
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prometheus.RecordAuthError("user_not_found")
		return "", nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return "", nil, apperr.Internal(err, "failed to load principal")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return "", nil, apperr.Unauthorized("invalid credentials")
	}
	if !user.Active {
		prometheus.RecordAuthError("principal_disabled")
		return "", nil, apperr.Unauthorized("account is disabled")
	}
	if s.cfg.EmailVerificationRequired && !user.EmailVerified {
		prometheus.RecordAuthError("email_not_verified")
		return "", nil, apperr.Forbidden("email address not verified")
	}

	token, err := s.jwt.GenerateToken(user.Email, user.ID, user.Role)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return "", nil, apperr.Internal(err, "token error")
	}

	s.log.Info("Principal logged in", zap.String("email", user.Email), zap.Uint("id", user.ID))
	return token, &user, nil
}

// VerifyEmail redeems a verification code
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.redeem(tx, email, code, model.CodeEmailVerify)
		if err != nil {
			return err
		}
		return tx.Model(user).Update("email_verified", true).Error
	})
}

// ForgotPassword issues a reset code when the email is known. Unknown
// emails are not reported to the caller.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ? AND active = ?", normalizeEmail(email), true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Info("Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return apperr.Internal(err, "failed to load principal")
	}

	s.issueCode(ctx, &user, model.CodePasswordReset,
		"Password reset",
		"Your password reset code is %s. It expires in %s.")
	return nil
}

// ResetPassword redeems a reset code and sets a new password
func (s *Service) ResetPassword(ctx context.Context, email, code, password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.redeem(tx, email, code, model.CodePasswordReset)
		if err != nil {
			return err
		}
		if err := tx.Model(user).Update("password", hashed).Error; err != nil {
			return apperr.Internal(err, "failed to update password")
		}
		s.log.Info("Password reset", zap.Uint("id", user.ID))
		return nil
	})
}

// issueCode stores a fresh code and mails it. Mail failures are logged
// and never fail the caller.
func (s *Service) issueCode(ctx context.Context, user *model.User, purpose, subject, body string) {
	code, err := s.codeFn()
	if err != nil {
		s.log.Error("Failed to generate code", zap.Error(err))
		return
	}

	db := s.db.WithContext(ctx)
	now := s.now()
	// older codes for the same purpose stop working
	db.Model(&model.VerificationCode{}).
		Where("user_id = ? AND purpose = ? AND used_at IS NULL", user.ID, purpose).
		Update("used_at", now)

	vc := model.VerificationCode{UserID: user.ID, Purpose: purpose, Code: code, ExpiresAt: now.Add(s.cfg.CodeTTL)}
	if err := db.Create(&vc).Error; err != nil {
		s.log.Error("Failed to store code", zap.Error(err), zap.Uint("user_id", user.ID))
		return
	}

	msg := mailer.Message{To: user.Email, Subject: subject, Body: fmt.Sprintf(body, code, s.cfg.CodeTTL)}
	if err := s.mailerFor(ctx, user).Send(ctx, msg); err != nil {
		prometheus.MailFailuresCounter.Inc()
		s.log.Error("Failed to send email",
			zap.Error(err),
			zap.String("to", user.Email),
			zap.String("purpose", purpose))
	}
}

// mailerFor prefers the relay configured on the tenant's default company
func (s *Service) mailerFor(ctx context.Context, user *model.User) mailer.Mailer {
	ownerID := user.ID
	if user.CreatedByID != nil {
		ownerID = *user.CreatedByID
	}

	var company model.Company
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND smtp_host <> ''", ownerID).
		Order("is_default desc, id").
		First(&company).Error
	if err != nil {
		return s.mail
	}
	from := company.SMTPFrom
	if from == "" {
		from = company.SMTPUser
	}
	return &mailer.SMTPMailer{
		Host:     company.SMTPHost,
		Port:     company.SMTPPort,
		User:     company.SMTPUser,
		Password: company.SMTPPassword,
		From:     from,
	}
}

func (s *Service) redeem(tx *gorm.DB, email, code, purpose string) (*model.User, error) {
	invalid := apperr.InvalidRequest("invalid or expired code")

	var user model.User
	err := tx.Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load principal")
	}

	var vc model.VerificationCode
	err = tx.Where("user_id = ? AND purpose = ? AND code = ? AND used_at IS NULL", user.ID, purpose, code).
		Order("id desc").
		First(&vc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prometheus.RecordAuthError("invalid_code")
		return nil, invalid
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load code")
	}

	now := s.now()
	if !vc.Usable(now) {
		prometheus.RecordAuthError("expired_code")
		return nil, invalid
	}
	if err := tx.Model(&vc).Update("used_at", now).Error; err != nil {
		return nil, apperr.Internal(err, "failed to redeem code")
	}
	return &user, nil
}

func classify(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Internal(err, "%s", msg)
}
