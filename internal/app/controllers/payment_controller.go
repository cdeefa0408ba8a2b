package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/app/models/dto"
	"github.com/eduserv/ledger/internal/app/services"
	"github.com/eduserv/ledger/internal/middleware"
)

// PaymentController handles payments and the balances derived from them
type PaymentController struct {
	paymentService services.PaymentService
	feeService     services.FeeService
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(paymentService services.PaymentService, feeService services.FeeService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		feeService:     feeService,
	}
}

// RecordPayment handles POST /students/:id/payments. The operator comes
// from the request session and ends up in recorded_by.
func (c *PaymentController) RecordPayment(ctx *gin.Context) {
	studentID, ok := idParam(ctx, "id", "student")
	if !ok {
		return
	}
	var req dto.RecordPaymentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	payment, err := c.paymentService.RecordPayment(ctx, middleware.SessionFrom(ctx), services.RecordPaymentInput{
		StudentID: studentID,
		FeeID:     int64(req.FeeID),
		Amount:    req.Amount(),
		Date:      req.PaymentDate,
		Method:    req.PaymentMethod,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	label := models.TuitionLabel
	if !payment.Target.IsTuition() {
		fee, err := c.feeService.GetFeeByID(ctx, payment.Target.FeeID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		label = fee.Name
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewPaymentResponse(payment, label)))
}

// GetBalance handles GET /students/:id/balance
func (c *PaymentController) GetBalance(ctx *gin.Context) {
	studentID, ok := idParam(ctx, "id", "student")
	if !ok {
		return
	}

	balance, err := c.paymentService.BalanceOf(ctx, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewBalanceResponse(*balance)))
}

// GetHistory handles GET /students/:id/payments
func (c *PaymentController) GetHistory(ctx *gin.Context) {
	studentID, ok := idParam(ctx, "id", "student")
	if !ok {
		return
	}

	history, err := c.paymentService.HistoryFor(ctx, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewHistoryResponse(*history)))
}

// GetStatement handles GET /students/:id/statement
func (c *PaymentController) GetStatement(ctx *gin.Context) {
	studentID, ok := idParam(ctx, "id", "student")
	if !ok {
		return
	}

	statement, err := c.paymentService.StatementFor(ctx, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStatementResponse(*statement)))
}
