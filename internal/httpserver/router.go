package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forgesite/auth-service/internal/middleware"
)

type Deps struct {
	AuthHandler  *AuthHTTP
	ResetHandler *ResetHTTP
	AccessSecret []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/refresh", d.AuthHandler.Refresh)
	e.POST("/logout", d.AuthHandler.Logout)
	e.POST("/forgot-password", d.ResetHandler.ForgotPassword)
	e.POST("/reset-password", d.ResetHandler.ResetPassword)

	authMw := middleware.NewBearerAuth(d.AccessSecret)
	private := e.Group("")
	private.Use(authMw.RequireAuth)
	private.GET("/profile", d.AuthHandler.Profile)
}
