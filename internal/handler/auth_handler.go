package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/auth"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/pkg/logger"
	"go.uber.org/zap"
)

func (h *Handler) Register(c echo.Context) error {
	var req auth.RegisterInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.Auth.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	logger.FromContext(c).Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	token, user, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user})
}

func (h *Handler) VerifyEmail(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.Auth.VerifyEmail(c.Request().Context(), req.Email, req.Code); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Email verified"})
}

// ForgotPassword always answers 200 so callers cannot probe for accounts
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.Auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		logger.FromContext(c).Error("Forgot password failed", zap.Error(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "If the email exists, a reset code has been sent"})
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Code     string `json:"code"`
		Password string `json:"password"`
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.Auth.ResetPassword(c.Request().Context(), req.Email, req.Code, req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated"})
}

// Me returns the principal and its resolved tenant context
func (h *Handler) Me(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}

	var user model.User
	if err := h.DB.WithContext(c.Request().Context()).First(&user, tc.PrincipalID).Error; err != nil {
		return respondError(c, err)
	}
	shared, err := h.Resolver.ResolveSharedIDs(c.Request().Context(), tc.PrincipalID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":      user,
		"tenant":    tc,
		"sharedIds": shared,
	})
}
