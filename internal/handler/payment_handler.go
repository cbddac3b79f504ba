package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/payment"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/prometheus"
)

// withCompany re-resolves the tenant context when a request body names a
// company other than the current one
func (h *Handler) withCompany(c echo.Context, tc tenant.Context, companyID uint) (tenant.Context, error) {
	if companyID == 0 || companyID == tc.CompanyID {
		return tc, nil
	}
	return h.Resolver.Resolve(c.Request().Context(), tc.PrincipalID, companyID)
}

func (h *Handler) ListPayments(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return respondError(c, err)
	}
	skip, err := queryInt(c, "skip")
	if err != nil {
		return respondError(c, err)
	}
	if limit == 0 {
		limit = 50
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	payments, total, err := h.Payments.List(c.Request().Context(), tc, payment.ListFilter{
		Type:  model.PaymentType(c.QueryParam("type")),
		State: model.PaymentState(c.QueryParam("state")),
		Limit: limit,
		Skip:  skip,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":  payments,
		"total": total,
		"limit": limit,
		"skip":  skip,
	})
}

func (h *Handler) CreatePayment(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		CompanyID uint `json:"companyId"`
		payment.CreateInput
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if tc, err = h.withCompany(c, tc, req.CompanyID); err != nil {
		return respondError(c, err)
	}

	p, err := h.Payments.Create(c.Request().Context(), tc, req.CreateInput)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) DistributePayment(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		CompanyID uint `json:"companyId"`
		payment.DistributeInput
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if tc, err = h.withCompany(c, tc, req.CompanyID); err != nil {
		return respondError(c, err)
	}

	payments, err := h.Payments.Distribute(c.Request().Context(), tc, req.DistributeInput)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"payments": payments})
}

func (h *Handler) ValidatePayment(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Payments.Validate(c.Request().Context(), tc, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePayment(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Payments.Delete(c.Request().Context(), tc, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
