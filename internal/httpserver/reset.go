package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forgesite/auth-service/internal/service"
	"github.com/forgesite/auth-service/pkg/logging"
)

const resetMessage = "If an account exists for that email, a reset token has been issued"

type ResetHTTP struct {
	Svc *service.ResetService
	// DevMode echoes the raw reset secret back in the response. In
	// production the secret goes out-of-band and this stays false.
	DevMode bool
}

func (h *ResetHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "forgot_password")

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	secret, err := h.Svc.RequestReset(ctx, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "email is required")
		}
		l.Error("reset request failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	resp := echo.Map{"message": resetMessage}
	if h.DevMode && secret != "" {
		resp["resetToken"] = secret
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ResetHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reset_password")

	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Token == "" || req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token and newPassword are required")
	}

	if err := h.Svc.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "password too short")
		case errors.Is(err, service.ErrInvalidResetToken):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired reset token")
		default:
			l.Error("reset failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
