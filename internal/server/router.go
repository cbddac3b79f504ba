// Package server assembles the echo application.
package server

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/suteetoe/erp/internal/handler"
	"github.com/suteetoe/erp/internal/middleware"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/pkg/jwtutil"
	"github.com/suteetoe/erp/pkg/logger"
	"github.com/suteetoe/erp/pkg/metrics"
)

// New builds the router with every route registered
func New(h *handler.Handler, jwt *jwtutil.JWTUtil, resolver *tenant.Resolver) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middleware.HeaderCompanyID,
			middleware.HeaderAPIKey,
		},
	}))
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(metrics.NewHTTPMetrics(h.MetricsPrefix, h.ServiceName).Middleware())

	// Public routes - no authentication required
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))

	authGroup := e.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/verify-email", h.VerifyEmail)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/forgot-password", h.ForgotPassword)
	authGroup.POST("/reset-password", h.ResetPassword)

	public := e.Group("/public")
	public.POST("/attendance/:token", h.PublicAttendance)
	public.GET("/invoices", h.PublicInvoices, middleware.APIKeyMiddleware(h.Gateway))

	generic := e.Group("/generic")
	generic.GET("/:model", h.Generic)
	generic.POST("/:model", h.Generic)
	generic.PUT("/:model", h.Generic)
	generic.DELETE("/:model", h.Generic)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware(jwt, resolver))
	api.GET("/me", h.Me)

	members := api.Group("/members")
	members.GET("", h.ListMembers)
	members.POST("", h.CreateMember, middleware.RequireAdmin)
	members.PATCH("/:id", h.UpdateMember, middleware.RequireAdmin)

	companies := api.Group("/companies")
	companies.GET("", h.ListCompanies)
	companies.POST("", h.CreateCompany, middleware.RequireAdmin)
	companies.PUT("/:id", h.UpdateCompany, middleware.RequireAdmin)
	companies.POST("/:id/api-key", h.RotateAPIKey, middleware.RequireAdmin)

	contacts := api.Group("/contacts")
	contacts.GET("", h.ListContacts)
	contacts.POST("", h.CreateContact)

	projects := api.Group("/projects")
	projects.GET("", h.ListProjects)
	projects.POST("", h.CreateProject)
	projects.POST("/:id/tasks", h.CreateTask)
	projects.GET("/:id/cost", h.ProjectCost)

	properties := api.Group("/properties")
	properties.GET("", h.ListProperties)
	properties.POST("", h.CreateProperty)

	payments := api.Group("/payments")
	payments.GET("", h.ListPayments)
	payments.POST("", h.CreatePayment)
	payments.POST("/distribute", h.DistributePayment)
	payments.POST("/:id/validate", h.ValidatePayment, middleware.RequireAdmin)
	payments.DELETE("/:id", h.DeletePayment)

	att := api.Group("/attendance")
	att.GET("", h.ListAttendance)
	att.POST("/check-in", h.CheckIn)
	att.POST("/check-out", h.CheckOut)
	att.PUT("/:id", h.UpdateAttendance)
	att.DELETE("/:id", h.DeleteAttendance)

	odooGroup := api.Group("/odoo", middleware.RequireAdmin)
	odooGroup.POST("/import/contacts", h.ImportOdooContacts)
	odooGroup.POST("/import/products", h.ImportOdooProducts)
	odooGroup.POST("/export/contacts/:id", h.ExportOdooContact)

	return e
}
