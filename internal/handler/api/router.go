package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/annuu1/autozonexnxt-sub000/internal/auth"
	xhttp "github.com/annuu1/autozonexnxt-sub000/pkg/http"
)

// Router mounts all API handlers on one Echo instance. Cache
// invalidation is admin-gated; everything else is public.
type Router struct {
	zones   *ZonesEchoHandler
	reports *ReportsEchoHandler
	jwt     *auth.Manager
}

func NewRouter(zones *ZonesEchoHandler, reports *ReportsEchoHandler, jwt *auth.Manager) *Router {
	return &Router{zones: zones, reports: reports, jwt: jwt}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	g := e.Group("/api/v1")
	admin := e.Group("/api/v1", auth.Middleware(r.jwt), auth.RequireRole(auth.RoleAdmin))

	r.zones.RegisterRoutes(g)
	r.reports.RegisterRoutes(g, admin)
}

var _ xhttp.Handler = (*Router)(nil)
