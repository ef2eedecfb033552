// Package router registers the HTTP routes of the archive API.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-archive/internal/handler"
	"github.com/iliyamo/project-archive/internal/middleware"
)

// Handlers groups everything the routes dispatch to.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Roles    *handler.RoleHandler
	Types    *handler.ProjectTypeHandler
	Projects *handler.ProjectHandler
}

// Options configures cross-cutting route behavior.
type Options struct {
	JWTSecret string
	UploadDir string
	UploadURL string
	// Cache wraps the public read routes only; nil means none.
	Cache echo.MiddlewareFunc
	// Invalidate runs after every mutating route; nil means none.
	Invalidate echo.MiddlewareFunc
}

// Register mounts every route on e.  Reads and login/registration are
// public; writes and /projects/mine need a bearer token.  Only the public
// reads are cached.
func Register(e *echo.Echo, db *sql.DB, h Handlers, opt Options) {
	e.GET("/healthz", handler.Health(db))
	if opt.UploadDir != "" {
		e.Static(opt.UploadURL, opt.UploadDir)
	}

	var inv, cached []echo.MiddlewareFunc
	if opt.Invalidate != nil {
		inv = append(inv, opt.Invalidate)
	}
	if opt.Cache != nil {
		cached = append(cached, opt.Cache)
	}
	auth := middleware.JWTAuth(opt.JWTSecret)
	write := append([]echo.MiddlewareFunc{auth}, inv...)

	e.POST("/register", h.Auth.Register, inv...)
	e.POST("/login", h.Auth.Login)

	e.GET("/users", h.Users.List, cached...)
	e.PUT("/users/:id", h.Users.Update, write...)
	e.DELETE("/users/:id", h.Users.Delete, write...)
	e.PATCH("/users/:id/rollback", h.Users.Rollback, write...)

	e.GET("/roles", h.Roles.List, cached...)
	e.POST("/roles", h.Roles.Create, inv...)

	e.GET("/project-types", h.Types.List, cached...)
	e.POST("/project-types", h.Types.Create, write...)
	e.PUT("/project-types/:id", h.Types.Update, write...)
	e.DELETE("/project-types/:id", h.Types.Delete, write...)

	e.GET("/projects", h.Projects.List, cached...)
	e.GET("/projects/mine", h.Projects.Mine, auth)
	e.GET("/projects/:id", h.Projects.Get, cached...)
	e.POST("/projects", h.Projects.Create, write...)
	e.PUT("/projects/:id", h.Projects.Update, write...)
	e.DELETE("/projects/:id", h.Projects.Delete, write...)
}
