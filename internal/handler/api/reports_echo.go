package api

import (
	"github.com/labstack/echo/v4"

	models "github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	"github.com/annuu1/autozonexnxt-sub000/internal/usecase"
	xhttp "github.com/annuu1/autozonexnxt-sub000/pkg/http"
	xlogger "github.com/annuu1/autozonexnxt-sub000/pkg/logger"
	"github.com/annuu1/autozonexnxt-sub000/pkg/util"
)

// ReportsEchoHandler serves the day-bucket report endpoints.
type ReportsEchoHandler struct {
	logger  *xlogger.Logger
	reports *usecase.ReportService
}

func NewReportsEchoHandler(logger *xlogger.Logger, reports *usecase.ReportService) *ReportsEchoHandler {
	return &ReportsEchoHandler{logger: logger, reports: reports}
}

// RegisterRoutes mounts the read endpoints on g and the cache
// invalidation endpoint on admin.
func (h *ReportsEchoHandler) RegisterRoutes(g, admin *echo.Group) {
	g.GET("/reports/day", h.Get)
	admin.DELETE("/reports/:date/cache", h.Invalidate)
}

func (h *ReportsEchoHandler) Get(c echo.Context) error {
	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rep, err := h.reports.GetReport(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("report error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *ReportsEchoHandler) Invalidate(c echo.Context) error {
	date := c.Param("date")
	if _, ok := util.ParseDateKey(date); !ok {
		return xhttp.BadRequestResponse(c, "date must be YYYY-MM-DD")
	}

	if err := h.reports.Invalidate(c.Request().Context(), date); err != nil {
		h.logger.Error("report invalidation error", xlogger.String("date", date), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
