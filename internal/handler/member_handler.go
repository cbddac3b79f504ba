package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/auth"
)

func (h *Handler) ListMembers(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	members, err := h.Auth.ListMembers(c.Request().Context(), tc)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"members": members})
}

func (h *Handler) CreateMember(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var req auth.MemberInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	member, err := h.Auth.CreateMember(c.Request().Context(), tc, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, member)
}

func (h *Handler) UpdateMember(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req auth.MemberUpdate
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	member, err := h.Auth.UpdateMember(c.Request().Context(), tc, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, member)
}
