package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-account-service/internal/handler"
	"github.com/iliyamo/user-account-service/internal/middleware"
	"github.com/iliyamo/user-account-service/internal/model"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and, when given, the metrics endpoint.
func RegisterRoutes(e *echo.Echo, metrics http.Handler) {
	e.GET("/healthz", handler.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// AuthDeps carries what RegisterAuth needs to wire the account routes.
type AuthDeps struct {
	Handler   *handler.AuthHandler
	Verifier  middleware.TokenVerifier
	Outcomes  middleware.OutcomeRecorder // may be nil
	RateLimit echo.MiddlewareFunc        // applied to register/login; may be nil
	Cache     echo.MiddlewareFunc        // applied to profile after the gate; may be nil
}

// RegisterAuth mounts the account routes under /api/users.  Register and
// login are public; profile sits behind the JWT gate and the role guard.
func RegisterAuth(e *echo.Echo, d AuthDeps) {
	g := e.Group("/api/users")

	var public []echo.MiddlewareFunc
	if d.RateLimit != nil {
		public = append(public, d.RateLimit)
	}
	g.POST("/register", d.Handler.Register, public...)
	g.POST("/login", d.Handler.Login, public...)

	protected := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.Verifier, d.Outcomes),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	}
	if d.Cache != nil {
		protected = append(protected, d.Cache)
	}
	g.GET("/profile", d.Handler.Profile, protected...)
}
