package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/attendance"
	"github.com/suteetoe/erp/internal/auth"
	"github.com/suteetoe/erp/internal/gateway"
	"github.com/suteetoe/erp/internal/middleware"
	"github.com/suteetoe/erp/internal/odoosync"
	"github.com/suteetoe/erp/internal/payment"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler holds the services behind the HTTP routes
type Handler struct {
	ServiceName   string
	MetricsPrefix string
	DB            *gorm.DB
	Resolver      *tenant.Resolver
	Auth          *auth.Service
	Payments      *payment.Service
	Attendance    *attendance.Service
	Gateway       *gateway.Gateway
	Odoo          *odoosync.Service
}

// respondError writes err as JSON. Server errors are logged at error level,
// client errors at warn.
func respondError(c echo.Context, err error) error {
	e := apperr.As(err)
	log := logger.FromContext(c)
	if e.Status() >= 500 {
		log.Error("Request failed", zap.String("code", string(e.Kind)), zap.Error(err))
	} else {
		log.Warn("Request rejected", zap.String("code", string(e.Kind)), zap.String("error", e.Message))
	}
	return c.JSON(e.Status(), e.Body())
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperr.InvalidRequest("invalid request body")
	}
	return nil
}

func tenantContext(c echo.Context) (tenant.Context, error) {
	tc, ok := middleware.TenantFromContext(c)
	if !ok {
		return tenant.Context{}, apperr.Unauthorized("authentication required")
	}
	return tc, nil
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.InvalidRequest("invalid %s", name)
	}
	return uint(id), nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.InvalidRequest("invalid %s", name)
	}
	return n, nil
}

func queryUint(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, apperr.InvalidRequest("invalid %s", name)
	}
	id := uint(n)
	return &id, nil
}

func queryDay(c echo.Context, name string) (string, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", apperr.InvalidRequest("%s must be YYYY-MM-DD", name)
	}
	return raw, nil
}
