package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/crediya/loan_backoffice_app/internal/apperrors"
	portssvc "github.com/crediya/loan_backoffice_app/internal/core/ports/services"
	"github.com/crediya/loan_backoffice_app/internal/core/services"
	"github.com/crediya/loan_backoffice_app/internal/dto"
	"github.com/crediya/loan_backoffice_app/internal/middleware"
	"github.com/crediya/loan_backoffice_app/internal/platform/config"
)

// paymentHandler handles HTTP requests for payments and their allocations.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{paymentService: ps}
}

// registerPaymentRoutes registers routes related to payments. Write endpoints
// are rate limited per client IP.
func registerPaymentRoutes(rg *gin.RouterGroup, cfg *config.Config, paymentService portssvc.PaymentSvcFacade) {
	h := newPaymentHandler(paymentService)

	rateFormat := cfg.PaymentRateLimit
	if rateFormat == "" {
		rateFormat = "30-M"
	}
	rate, err := limiter.NewRateFromFormatted(rateFormat)
	if err != nil {
		rate, _ = limiter.NewRateFromFormatted("30-M")
	}
	limitMiddleware := limitergin.NewMiddleware(limiter.New(memory.NewStore(), rate))

	payments := rg.Group("/payments")
	{
		payments.POST("", limitMiddleware, h.registerPayment)
		payments.POST("/unreconcile", limitMiddleware, h.unreconcileInstallment)
		payments.GET("", h.listPayments)
		payments.GET("/:id", h.getPaymentByID)
		payments.GET("/:id/allocations", h.getAllocations)
	}
}

// registerPayment godoc
// @Summary Register a payment
// @Description Records a money receipt and allocates it against the loan's pending installments, oldest due date first
// @Tags payments
// @Accept json
// @Produce json
// @Param payment body dto.RegisterPaymentRequest true "Payment details"
// @Success 201 {object} dto.AllocationResultResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Loan not found"
// @Failure 409 {object} ErrorResponse "Loan is not accepting payments"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments [post]
func (h *paymentHandler) registerPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RegisterPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	result, err := h.paymentService.RegisterPayment(c.Request.Context(), req, userID)
	if err != nil && !errors.Is(err, services.ErrNoPendingInstallments) {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Loan not found"})
		case errors.Is(err, services.ErrLoanNotActive):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Loan is not accepting payments"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to register payment", slog.String("error", err.Error()), slog.String("loan_id", req.LoanID))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to register payment"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToAllocationResultResponse(result))
}

// unreconcileInstallment godoc
// @Summary Unreconcile an installment
// @Description Administratively reverses the settlement of an installment. Its allocations are stamped reversed and returned to their payments for review.
// @Tags payments
// @Accept json
// @Produce json
// @Param body body dto.UnreconcileRequest true "Installment to unreconcile"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Installment not found"
// @Failure 409 {object} ErrorResponse "Installment is not settled"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments/unreconcile [post]
func (h *paymentHandler) unreconcileInstallment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UnreconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.paymentService.UnreconcileInstallment(c.Request.Context(), req.InstallmentID, userID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Installment not found"})
		case errors.Is(err, services.ErrInstallmentNotSettled):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Installment is not settled"})
		default:
			logger.Error("Failed to unreconcile installment",
				slog.String("error", err.Error()), slog.String("installment_id", req.InstallmentID))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to unreconcile installment"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// listPayments godoc
// @Summary List payments for a loan
// @Description Retrieves a paginated list of payments registered against a loan, newest first
// @Tags payments
// @Produce json
// @Param loanID query string true "Loan ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.PaymentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments [get]
func (h *paymentHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Query("loanID")
	if loanID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "loanID query parameter is required"})
		return
	}
	limit, offset := parsePagination(c)

	payments, err := h.paymentService.ListPaymentsByLoan(c.Request.Context(), loanID, limit, offset)
	if err != nil {
		logger.Error("Failed to list payments", slog.String("error", err.Error()), slog.String("loan_id", loanID))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponses(payments))
}

// getPaymentByID godoc
// @Summary Get a payment
// @Tags payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments/{id} [get]
func (h *paymentHandler) getPaymentByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("id")

	payment, err := h.paymentService.GetPaymentByID(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Payment not found"})
			return
		}
		logger.Error("Failed to get payment", slog.String("error", err.Error()), slog.String("payment_id", paymentID))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve payment"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// getAllocations godoc
// @Summary Get the allocations of a payment
// @Description Retrieves every allocation row of a payment, including reversed ones
// @Tags payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {array} dto.PaymentAllocationResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments/{id}/allocations [get]
func (h *paymentHandler) getAllocations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("id")

	allocations, err := h.paymentService.GetAllocations(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Payment not found"})
			return
		}
		logger.Error("Failed to get allocations", slog.String("error", err.Error()), slog.String("payment_id", paymentID))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve allocations"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentAllocationResponses(allocations))
}
