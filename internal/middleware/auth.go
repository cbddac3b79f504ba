package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/pkg/jwtutil"
	"github.com/suteetoe/erp/pkg/logger"
	"github.com/suteetoe/erp/prometheus"
	"go.uber.org/zap"
)

const (
	tenantKey  = "tenant"
	companyKey = "api_company"

	// HeaderCompanyID selects one of the owner's companies
	HeaderCompanyID = "X-Company-ID"
	// HeaderAPIKey carries a company API key on public read endpoints
	HeaderAPIKey = "X-API-Key"
)

func abort(c echo.Context, err error) error {
	e := apperr.As(err)
	return c.JSON(e.Status(), e.Body())
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(c echo.Context) (string, bool) {
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware validates the JWT and resolves the tenant context of the
// principal once per request
func AuthMiddleware(jwt *jwtutil.JWTUtil, resolver *tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			token, ok := BearerToken(c)
			if !ok {
				log.Warn("Missing or malformed Authorization header")
				return abort(c, apperr.Unauthorized("missing authorization token"))
			}

			claims, err := jwt.ValidateToken(token)
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return abort(c, apperr.Unauthorized("invalid or expired token"))
			}

			var companyID uint
			if raw := c.Request().Header.Get(HeaderCompanyID); raw != "" {
				id, err := strconv.ParseUint(raw, 10, 32)
				if err != nil {
					return abort(c, apperr.InvalidRequest("invalid %s header", HeaderCompanyID))
				}
				companyID = uint(id)
			}

			tc, err := resolver.Resolve(c.Request().Context(), claims.UserID, companyID)
			if err != nil {
				if apperr.Is(err, apperr.KindNotFound) {
					prometheus.TenantContextMissingCounter.Inc()
				}
				log.Warn("Failed to resolve tenant context", zap.Uint("user_id", claims.UserID), zap.Error(err))
				return abort(c, err)
			}

			c.Set(tenantKey, tc)
			logger.WithLogger(c, log.With(
				zap.Uint("user_id", tc.PrincipalID),
				zap.Uint("tenant_id", tc.OwnerID),
				zap.Uint("company_id", tc.CompanyID)))
			return next(c)
		}
	}
}

// TenantFromContext returns the context resolved by AuthMiddleware
func TenantFromContext(c echo.Context) (tenant.Context, bool) {
	tc, ok := c.Get(tenantKey).(tenant.Context)
	return tc, ok
}

// RequireAdmin rejects principals that are neither owner nor admin
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tc, ok := TenantFromContext(c)
		if !ok {
			return abort(c, apperr.Unauthorized("authentication required"))
		}
		if !tc.IsAdmin() {
			logger.FromContext(c).Warn("Administrative route denied", zap.String("role", tc.Role))
			return abort(c, apperr.Forbidden("owner or admin role required"))
		}
		return next(c)
	}
}

// Authenticator resolves a company from its API key
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*model.Company, error)
}

// APIKeyMiddleware authenticates a company API key sent either as
// X-API-Key or as a bearer token
func APIKeyMiddleware(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			key := c.Request().Header.Get(HeaderAPIKey)
			if key == "" {
				key, _ = BearerToken(c)
			}

			company, err := auth.Authenticate(c.Request().Context(), key)
			if err != nil {
				log.Warn("API key rejected", zap.Error(err))
				prometheus.RecordAuthError("invalid_api_key")
				return abort(c, err)
			}

			c.Set(companyKey, company)
			logger.WithLogger(c, log.With(zap.Uint("company_id", company.ID)))
			return next(c)
		}
	}
}

// CompanyFromContext returns the company authenticated by APIKeyMiddleware
func CompanyFromContext(c echo.Context) (*model.Company, bool) {
	company, ok := c.Get(companyKey).(*model.Company)
	return company, ok
}
