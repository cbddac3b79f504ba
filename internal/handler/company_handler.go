package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type companyRequest struct {
	Name                     *string `json:"name"`
	PaymentEntradaPrefix     *string `json:"paymentEntradaPrefix"`
	PaymentEntradaNextNumber *int64  `json:"paymentEntradaNextNumber"`
	PaymentSalidaPrefix      *string `json:"paymentSalidaPrefix"`
	PaymentSalidaNextNumber  *int64  `json:"paymentSalidaNextNumber"`
	OdooURL                  *string `json:"odooUrl"`
	OdooDB                   *string `json:"odooDb"`
	OdooUsername             *string `json:"odooUsername"`
	OdooPassword             *string `json:"odooPassword"`
	SMTPHost                 *string `json:"smtpHost"`
	SMTPPort                 *int    `json:"smtpPort"`
	SMTPUser                 *string `json:"smtpUser"`
	SMTPPassword             *string `json:"smtpPassword"`
	SMTPFrom                 *string `json:"smtpFrom"`
}

func (h *Handler) ownedCompany(c echo.Context, tc tenant.Context) (*model.Company, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	var company model.Company
	err = h.DB.WithContext(c.Request().Context()).Where("owner_id = ?", tc.OwnerID).First(&company, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("company %d not found", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load company")
	}
	return &company, nil
}

func (h *Handler) ListCompanies(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var companies []model.Company
	if err := h.DB.WithContext(c.Request().Context()).Where("owner_id = ?", tc.OwnerID).Order("id").Find(&companies).Error; err != nil {
		return respondError(c, apperr.Internal(err, "failed to list companies"))
	}
	return c.JSON(http.StatusOK, echo.Map{"companies": companies, "current": tc.CompanyID})
}

func (h *Handler) CreateCompany(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var req companyRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return respondError(c, apperr.InvalidRequest("name is required"))
	}

	company := model.Company{OwnerID: tc.OwnerID}
	if err := applyCompany(&company, req); err != nil {
		return respondError(c, err)
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&company).Error; err != nil {
		return respondError(c, apperr.Internal(err, "company creation failed"))
	}

	logger.FromContext(c).Info("Company created",
		zap.Uint("id", company.ID),
		zap.Uint("owner_id", company.OwnerID),
		zap.String("name", company.Name))
	return c.JSON(http.StatusCreated, company)
}

func (h *Handler) UpdateCompany(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	company, err := h.ownedCompany(c, tc)
	if err != nil {
		return respondError(c, err)
	}
	var req companyRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return respondError(c, apperr.InvalidRequest("name cannot be empty"))
	}

	if err := updateCompany(h.DB.WithContext(c.Request().Context()), company, req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

// updateCompany writes only the fields present in req and reloads company.
// The loaded counters may already be stale, so they are never written back.
func updateCompany(db *gorm.DB, company *model.Company, req companyRequest) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if updates := companyUpdates(req); len(updates) > 0 {
			if err := tx.Model(&model.Company{}).Where("id = ?", company.ID).Updates(updates).Error; err != nil {
				return apperr.Internal(err, "company update failed")
			}
		}
		if err := advanceCounter(tx, company.ID, "payment_entrada_next_number", "paymentEntradaNextNumber", req.PaymentEntradaNextNumber); err != nil {
			return err
		}
		return advanceCounter(tx, company.ID, "payment_salida_next_number", "paymentSalidaNextNumber", req.PaymentSalidaNextNumber)
	})
	if err != nil {
		return err
	}
	if err := db.First(company, company.ID).Error; err != nil {
		return apperr.Internal(err, "failed to reload company")
	}
	return nil
}

// advanceCounter moves a numbering counter forward. The comparison is part
// of the UPDATE so numbers issued since the company was read are respected.
func advanceCounter(tx *gorm.DB, companyID uint, column, field string, next *int64) error {
	if next == nil {
		return nil
	}
	if *next < 1 {
		return apperr.InvalidRequest("%s must be at least 1", field)
	}
	res := tx.Model(&model.Company{}).
		Where("id = ? AND "+column+" <= ?", companyID, *next).
		UpdateColumn(column, *next)
	if res.Error != nil {
		return apperr.Internal(res.Error, "company update failed")
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidRequest("%s cannot go backwards", field)
	}
	return nil
}

// RotateAPIKey issues a new key and sets whether the API is enabled. The
// key is only ever shown in this response.
func (h *Handler) RotateAPIKey(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	company, err := h.ownedCompany(c, tc)
	if err != nil {
		return respondError(c, err)
	}
	req := struct {
		Enabled *bool `json:"enabled"`
	}{}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	key := model.NewAPIKey()
	err = h.DB.WithContext(c.Request().Context()).Model(company).
		Updates(map[string]interface{}{"api_key": key, "api_enabled": enabled}).Error
	if err != nil {
		return respondError(c, apperr.Internal(err, "failed to rotate API key"))
	}

	logger.FromContext(c).Info("API key rotated", zap.Uint("company_id", company.ID), zap.Bool("enabled", enabled))
	return c.JSON(http.StatusOK, echo.Map{"apiKey": key, "apiEnabled": enabled})
}

// applyCompany fills a new company from the request
func applyCompany(company *model.Company, req companyRequest) error {
	for field, next := range map[string]*int64{
		"paymentEntradaNextNumber": req.PaymentEntradaNextNumber,
		"paymentSalidaNextNumber":  req.PaymentSalidaNextNumber,
	} {
		if next != nil && *next < 1 {
			return apperr.InvalidRequest("%s must be at least 1", field)
		}
	}
	if req.Name != nil {
		company.Name = strings.TrimSpace(*req.Name)
	}
	if req.PaymentEntradaNextNumber != nil {
		company.PaymentEntradaNextNumber = *req.PaymentEntradaNextNumber
	}
	if req.PaymentSalidaNextNumber != nil {
		company.PaymentSalidaNextNumber = *req.PaymentSalidaNextNumber
	}
	setString(&company.PaymentEntradaPrefix, req.PaymentEntradaPrefix)
	setString(&company.PaymentSalidaPrefix, req.PaymentSalidaPrefix)
	setString(&company.OdooURL, req.OdooURL)
	setString(&company.OdooDB, req.OdooDB)
	setString(&company.OdooUsername, req.OdooUsername)
	setString(&company.OdooPassword, req.OdooPassword)
	setString(&company.SMTPHost, req.SMTPHost)
	setString(&company.SMTPUser, req.SMTPUser)
	setString(&company.SMTPPassword, req.SMTPPassword)
	setString(&company.SMTPFrom, req.SMTPFrom)
	if req.SMTPPort != nil {
		company.SMTPPort = *req.SMTPPort
	}
	return nil
}

// companyUpdates lists the columns set in req, counters excluded
func companyUpdates(req companyRequest) map[string]interface{} {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.SMTPPort != nil {
		updates["smtp_port"] = *req.SMTPPort
	}
	for column, v := range map[string]*string{
		"payment_entrada_prefix": req.PaymentEntradaPrefix,
		"payment_salida_prefix":  req.PaymentSalidaPrefix,
		"odoo_url":               req.OdooURL,
		"odoo_db":                req.OdooDB,
		"odoo_username":          req.OdooUsername,
		"odoo_password":          req.OdooPassword,
		"smtp_host":              req.SMTPHost,
		"smtp_user":              req.SMTPUser,
		"smtp_password":          req.SMTPPassword,
		"smtp_from":              req.SMTPFrom,
	} {
		if v != nil {
			updates[column] = *v
		}
	}
	return updates
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
