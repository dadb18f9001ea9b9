package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/core/services"
	"github.com/crediya/loan_backoffice_app/internal/dto"
	"github.com/crediya/loan_backoffice_app/internal/middleware"
)

// loanHandler handles HTTP requests related to loans and their schedules.
type loanHandler struct {
	loanService portssvc.LoanSvcFacade
}

func newLoanHandler(ls portssvc.LoanSvcFacade) *loanHandler {
	return &loanHandler{loanService: ls}
}

// RegisterLoanRoutes registers routes related to loans.
func RegisterLoanRoutes(rg *gin.RouterGroup, loanService portssvc.LoanSvcFacade) {
	h := newLoanHandler(loanService)

	loans := rg.Group("/loans")
	{
		loans.POST("", h.createLoan)
		loans.GET("", h.listLoans)
		loans.GET("/:id", h.getLoanByID)
		loans.POST("/:id/approve", h.approveLoan)
		loans.POST("/:id/reject", h.rejectLoan)
		loans.POST("/:id/cancel", h.cancelLoan)
		loans.POST("/:id/schedule/regenerate", h.regenerateSchedule)
	}
}

// createLoan godoc
// @Summary Create a loan application
// @Description Registers a loan application in PENDING state
// @Tags loans
// @Accept json
// @Produce json
// @Param loan body dto.CreateLoanRequest true "Loan details"
// @Success 201 {object} dto.LoanResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Client or currency not found"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans [post]
func (h *loanHandler) createLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateLoan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	loan, err := h.loanService.CreateLoan(c.Request.Context(), req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Client or currency not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to create loan", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create loan"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToLoanResponse(loan, time.Now().UTC()))
}

// getLoanByID godoc
// @Summary Get a loan
// @Description Retrieves a loan with its full installment schedule. The status is derived from the installments.
// @Tags loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {object} dto.LoanResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans/{id} [get]
func (h *loanHandler) getLoanByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	loan, err := h.loanService.GetLoanByID(c.Request.Context(), loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Loan not found"})
			return
		}
		logger.Error("Failed to get loan", slog.String("error", err.Error()), slog.String("loan_id", loanID))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve loan"})
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan, time.Now().UTC()))
}

// listLoans godoc
// @Summary List loans
// @Description Retrieves a paginated list of loans, optionally filtered by client
// @Tags loans
// @Produce json
// @Param clientID query string false "Filter by client"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.LoanResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans [get]
func (h *loanHandler) listLoans(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	limit, offset := parsePagination(c)

	loans, err := h.loanService.ListLoans(c.Request.Context(), dto.ListLoansParams{
		ClientID: c.Query("clientID"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		logger.Error("Failed to list loans", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list loans"})
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponses(loans, time.Now().UTC()))
}

// approveLoan godoc
// @Summary Approve a loan
// @Description Approves a pending loan and generates its amortization schedule atomically
// @Tags loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {object} dto.LoanResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Loan is not pending"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans/{id}/approve [post]
func (h *loanHandler) approveLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	loan, err := h.loanService.ApproveLoan(c.Request.Context(), loanID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Loan not found"})
		case errors.Is(err, services.ErrLoanNotPending):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Loan is not pending approval"})
		default:
			logger.Error("Failed to approve loan", slog.String("error", err.Error()), slog.String("loan_id", loanID))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to approve loan"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan, time.Now().UTC()))
}

// rejectLoan godoc
// @Summary Reject a loan
// @Description Rejects a pending loan application
// @Tags loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Loan is not pending"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans/{id}/reject [post]
func (h *loanHandler) rejectLoan(c *gin.Context) {
	h.transitionLoan(c, h.loanService.RejectLoan)
}

// cancelLoan godoc
// @Summary Cancel a loan
// @Description Cancels a loan that has no settled installments
// @Tags loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Loan has settled installments"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans/{id}/cancel [post]
func (h *loanHandler) cancelLoan(c *gin.Context) {
	h.transitionLoan(c, h.loanService.CancelLoan)
}

func (h *loanHandler) transitionLoan(c *gin.Context, transition func(ctx context.Context, loanID, userID string) error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := transition(c.Request.Context(), loanID, userID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Loan not found"})
		case errors.Is(err, services.ErrLoanNotPending),
			errors.Is(err, services.ErrLoanHasSettledInstallments),
			errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to transition loan", slog.String("error", err.Error()), slog.String("loan_id", loanID))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update loan"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// regenerateSchedule godoc
// @Summary Regenerate a loan schedule
// @Description Replaces the loan's pending installments with a freshly generated schedule. Requires force once any installment has settled.
// @Tags loans
// @Accept json
// @Produce json
// @Param id path string true "Loan ID"
// @Param body body dto.RegenerateScheduleRequest false "Regeneration options"
// @Success 200 {object} dto.LoanResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Settled installments present and force not set"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans/{id}/schedule/regenerate [post]
func (h *loanHandler) regenerateSchedule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("id")

	var req dto.RegenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	loan, err := h.loanService.RegenerateSchedule(c.Request.Context(), loanID, req.Force, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Loan not found"})
		case errors.Is(err, services.ErrCannotRegenerateSettledLoan), errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to regenerate schedule", slog.String("error", err.Error()), slog.String("loan_id", loanID))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to regenerate schedule"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan, time.Now().UTC()))
}
