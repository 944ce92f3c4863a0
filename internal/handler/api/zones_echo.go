package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	models "github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	"github.com/annuu1/autozonexnxt-sub000/internal/service/ratelimit"
	"github.com/annuu1/autozonexnxt-sub000/internal/usecase"
	xhttp "github.com/annuu1/autozonexnxt-sub000/pkg/http"
	xlogger "github.com/annuu1/autozonexnxt-sub000/pkg/logger"
)

// ZonesEchoHandler serves the zone scan and lifecycle endpoints.
type ZonesEchoHandler struct {
	logger *xlogger.Logger
	scans  *usecase.ScanService
	rl     *ratelimit.Limiter
}

func NewZonesEchoHandler(logger *xlogger.Logger, scans *usecase.ScanService) *ZonesEchoHandler {
	return &ZonesEchoHandler{logger: logger, scans: scans, rl: ratelimit.New()}
}

func (h *ZonesEchoHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/zones/scan", h.Scan)
	g.GET("/zones/filtered", h.Filtered)
	g.POST("/zones/:id/seen", h.MarkSeen)
	g.GET("/zones/:id/transitions", h.Transitions)
}

func (h *ZonesEchoHandler) Scan(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":scan", 10, 2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.scans.Scan(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("zone scan error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rows)
}

func (h *ZonesEchoHandler) Filtered(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":filtered", 10, 2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	req := &models.FilteredRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, total, err := h.scans.FilteredZones(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("filtered zones error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(total), req.Page, req.Limit)
}

func (h *ZonesEchoHandler) MarkSeen(c echo.Context) error {
	zoneID := c.Param("id")
	if zoneID == "" {
		return xhttp.BadRequestResponse(c, "zone id required")
	}

	if err := h.scans.MarkSeen(c.Request().Context(), zoneID); err != nil {
		if errors.Is(err, domrepo.ErrZoneNotFound) {
			return xhttp.NotFoundResponse(c, "zone not found")
		}
		h.logger.Error("mark seen error", xlogger.String("zone_id", zoneID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *ZonesEchoHandler) Transitions(c echo.Context) error {
	zoneID := c.Param("id")
	if zoneID == "" {
		return xhttp.BadRequestResponse(c, "zone id required")
	}
	req := &models.TransitionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	evs, err := h.scans.Transitions(c.Request().Context(), zoneID, req.Limit)
	if err != nil {
		if errors.Is(err, domrepo.ErrZoneNotFound) {
			return xhttp.NotFoundResponse(c, "zone not found")
		}
		h.logger.Error("transitions error", xlogger.String("zone_id", zoneID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, evs)
}
