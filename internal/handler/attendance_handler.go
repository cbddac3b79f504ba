package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/attendance"
	"github.com/suteetoe/erp/pkg/logger"
	"go.uber.org/zap"
)

func (h *Handler) ListAttendance(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var f attendance.Filter
	if f.UserID, err = queryUint(c, "userId"); err != nil {
		return respondError(c, err)
	}
	if f.ProjectID, err = queryUint(c, "projectId"); err != nil {
		return respondError(c, err)
	}
	if f.From, err = queryDay(c, "from"); err != nil {
		return respondError(c, err)
	}
	if f.To, err = queryDay(c, "to"); err != nil {
		return respondError(c, err)
	}

	sessions, err := h.Attendance.List(c.Request().Context(), tc, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": sessions})
}

func (h *Handler) CheckIn(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var req attendance.CheckInInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	a, err := h.Attendance.CheckIn(c.Request().Context(), tc, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) CheckOut(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	a, err := h.Attendance.CheckOut(c.Request().Context(), tc, req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAttendance(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req attendance.Update
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	a, err := h.Attendance.Update(c.Request().Context(), tc, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAttendance(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Attendance.Delete(c.Request().Context(), tc, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PublicAttendance drives check-in/check-out from a kiosk or QR link keyed
// by the principal's attendance token
func (h *Handler) PublicAttendance(c echo.Context) error {
	var req struct {
		Action string `json:"action"`
		attendance.CheckInInput
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	user, err := h.Attendance.PrincipalForToken(ctx, c.Param("token"))
	if err != nil {
		return respondError(c, err)
	}
	tc, err := h.Resolver.Resolve(ctx, user.ID, 0)
	if err != nil {
		return respondError(c, err)
	}
	logger.WithLogger(c, logger.FromContext(c).With(zap.Uint("user_id", user.ID), zap.Uint("company_id", tc.CompanyID)))

	switch req.Action {
	case "check-in":
		a, err := h.Attendance.CheckIn(ctx, tc, req.CheckInInput)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, a)
	case "check-out":
		a, err := h.Attendance.CheckOut(ctx, tc, req.Notes)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, a)
	default:
		return respondError(c, apperr.InvalidRequest(`action must be "check-in" or "check-out"`))
	}
}
