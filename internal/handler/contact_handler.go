package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
)

// ListContacts returns contacts created by any principal of the tenant
func (h *Handler) ListContacts(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	shared, err := h.Resolver.ResolveSharedIDs(c.Request().Context(), tc.PrincipalID)
	if err != nil {
		return respondError(c, err)
	}

	q := h.DB.WithContext(c.Request().Context()).Where("user_id IN ?", shared)
	if s := strings.TrimSpace(c.QueryParam("q")); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	var contacts []model.Contact
	if err := q.Order("name").Find(&contacts).Error; err != nil {
		return respondError(c, apperr.Internal(err, "failed to list contacts"))
	}
	return c.JSON(http.StatusOK, echo.Map{"contacts": contacts})
}

func (h *Handler) CreateContact(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Phone  string `json:"phone"`
		VAT    string `json:"vat"`
		Street string `json:"street"`
		City   string `json:"city"`
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return respondError(c, apperr.InvalidRequest("name is required"))
	}

	companyID := tc.CompanyID
	contact := model.Contact{
		UserID:    tc.OwnerID,
		CompanyID: &companyID,
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Phone:     req.Phone,
		VAT:       req.VAT,
		Street:    req.Street,
		City:      req.City,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&contact).Error; err != nil {
		return respondError(c, apperr.Internal(err, "contact creation failed"))
	}
	return c.JSON(http.StatusCreated, contact)
}
