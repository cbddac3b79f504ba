package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/pkg/logger"
	"go.uber.org/zap"
)

// ListProperties returns the cost-distribution targets of the current company
func (h *Handler) ListProperties(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var properties []model.Property
	err = h.DB.WithContext(c.Request().Context()).
		Where("company_id = ?", tc.CompanyID).
		Order("id").
		Find(&properties).Error
	if err != nil {
		return respondError(c, apperr.Internal(err, "failed to list properties"))
	}
	return c.JSON(http.StatusOK, echo.Map{"properties": properties})
}

func (h *Handler) CreateProperty(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return respondError(c, apperr.InvalidRequest("name is required"))
	}

	property := model.Property{CompanyID: tc.CompanyID, Name: strings.TrimSpace(req.Name), Address: req.Address}
	if err := h.DB.WithContext(c.Request().Context()).Create(&property).Error; err != nil {
		return respondError(c, apperr.Internal(err, "property creation failed"))
	}

	logger.FromContext(c).Info("Property created",
		zap.Uint("id", property.ID),
		zap.Uint("company_id", property.CompanyID))
	return c.JSON(http.StatusCreated, property)
}
