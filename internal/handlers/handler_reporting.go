package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/dto"
	"github.com/crediya/loan_backoffice_app/internal/middleware"
)

// reportingHandler serves the contability report built from the cache.
type reportingHandler struct {
	contabilityService portssvc.ContabilitySvcFacade
}

func newReportingHandler(cs portssvc.ContabilitySvcFacade) *reportingHandler {
	return &reportingHandler{contabilityService: cs}
}

// registerReportingRoutes registers routes for reporting.
func registerReportingRoutes(rg *gin.RouterGroup, contabilityService portssvc.ContabilitySvcFacade) {
	h := newReportingHandler(contabilityService)

	reports := rg.Group("/reports")
	{
		reports.GET("/contability", h.getContabilityReport)
	}
}

// getContabilityReport godoc
// @Summary Contability report
// @Description Retrieves settled installments in the requested payment date range, with amounts converted to the local currency
// @Tags reports
// @Produce json
// @Param from query string true "Start date (YYYY-MM-DD, inclusive)"
// @Param to query string true "End date (YYYY-MM-DD, inclusive)"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.ContabilityReportResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /reports/contability [get]
func (h *reportingHandler) getContabilityReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid 'from' date, expected YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid 'to' date, expected YYYY-MM-DD"})
		return
	}
	limit, offset := parsePagination(c)

	rows, err := h.contabilityService.GetReport(c.Request.Context(), dto.ContabilityReportParams{
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("Failed to build contability report", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to build report"})
		return
	}

	c.JSON(http.StatusOK, dto.ToContabilityReportResponse(rows, from, to))
}
