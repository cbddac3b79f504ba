package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) ImportOdooContacts(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.Odoo.ImportContacts(c.Request().Context(), tc)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ImportOdooProducts(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.Odoo.ImportProducts(c.Request().Context(), tc)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ExportOdooContact(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	shared, err := h.Resolver.ResolveSharedIDs(c.Request().Context(), tc.PrincipalID)
	if err != nil {
		return respondError(c, err)
	}
	contact, err := h.Odoo.ExportContact(c.Request().Context(), tc, shared, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}
