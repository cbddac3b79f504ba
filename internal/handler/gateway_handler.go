package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/gateway"
	"github.com/suteetoe/erp/internal/middleware"
	"github.com/suteetoe/erp/prometheus"
)

var reservedQuery = map[string]bool{"id": true, "limit": true, "skip": true}

// Generic serves the model gateway. The model is checked against the
// allow-list before the token is looked at.
func (h *Handler) Generic(c echo.Context) error {
	kind, err := gateway.ParseKind(c.Param("model"))
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.Gateway.Authenticate(c.Request().Context(), apiKey(c)); err != nil {
		prometheus.RecordAuthError("invalid_api_key")
		return respondError(c, err)
	}

	prometheus.RecordGatewayRequest(string(kind), c.Request().Method)
	repo := h.Gateway.Repository(kind)
	ctx := c.Request().Context()

	switch c.Request().Method {
	case http.MethodGet:
		if raw := c.QueryParam("id"); raw != "" {
			id, err := parseID(raw)
			if err != nil {
				return respondError(c, err)
			}
			item, err := repo.Get(ctx, id)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(http.StatusOK, item)
		}

		q := gateway.ListQuery{Filters: map[string]string{}}
		if q.Limit, err = queryInt(c, "limit"); err != nil {
			return respondError(c, err)
		}
		if q.Skip, err = queryInt(c, "skip"); err != nil {
			return respondError(c, err)
		}
		for key, values := range c.QueryParams() {
			if !reservedQuery[key] && len(values) > 0 {
				q.Filters[key] = values[0]
			}
		}
		page, err := repo.List(ctx, q)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, page)

	case http.MethodPost:
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return respondError(c, apperr.InvalidRequest("invalid request body"))
		}
		item, err := repo.Create(ctx, body)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, item)

	case http.MethodPut:
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return respondError(c, apperr.InvalidRequest("invalid request body"))
		}
		id, err := bodyID(body)
		if err != nil {
			return respondError(c, err)
		}
		item, err := repo.Update(ctx, id, body)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, item)

	case http.MethodDelete:
		raw := c.QueryParam("id")
		if raw == "" {
			return respondError(c, apperr.InvalidRequest("id is required"))
		}
		id, err := parseID(raw)
		if err != nil {
			return respondError(c, err)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"deleted": id})
	}
	return respondError(c, apperr.InvalidRequest("method not supported"))
}

// PublicInvoices lists invoices of the company owning the API key
func (h *Handler) PublicInvoices(c echo.Context) error {
	company, ok := middleware.CompanyFromContext(c)
	if !ok {
		return respondError(c, apperr.Unauthorized("API token required"))
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return respondError(c, err)
	}
	skip, err := queryInt(c, "skip")
	if err != nil {
		return respondError(c, err)
	}

	page, err := h.Gateway.CompanyInvoices(c.Request().Context(), company.ID, c.QueryParam("status"), limit, skip)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func apiKey(c echo.Context) string {
	if token, ok := middleware.BearerToken(c); ok {
		return token
	}
	return c.Request().Header.Get(middleware.HeaderAPIKey)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.InvalidRequest("invalid id %q", raw)
	}
	return uint(id), nil
}

func bodyID(body []byte) (uint, error) {
	var probe struct {
		ID *uint `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return 0, apperr.Internal(err, "%s", err.Error())
	}
	if probe.ID == nil || *probe.ID == 0 {
		return 0, apperr.InvalidRequest("id is required")
	}
	return *probe.ID, nil
}
