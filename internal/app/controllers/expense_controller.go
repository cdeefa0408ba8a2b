package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduserv/ledger/internal/app/models/dto"
	"github.com/eduserv/ledger/internal/app/services"
	"github.com/eduserv/ledger/internal/middleware"
)

// ExpenseController handles the expense log
type ExpenseController struct {
	expenseService services.ExpenseService
}

// NewExpenseController creates a new ExpenseController
func NewExpenseController(expenseService services.ExpenseService) *ExpenseController {
	return &ExpenseController{expenseService: expenseService}
}

// RecordExpense handles POST /expenses
func (c *ExpenseController) RecordExpense(ctx *gin.Context) {
	var req dto.RecordExpenseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	expense, err := c.expenseService.RecordExpense(ctx, services.RecordExpenseInput{
		PersonName:  req.PersonName,
		Amount:      req.Amount,
		Date:        req.ExpenseDate,
		Description: req.Description,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewExpenseResponse(expense)))
}

// QueryExpenses handles GET /expenses?start_date=&end_date=
func (c *ExpenseController) QueryExpenses(ctx *gin.Context) {
	report, err := c.expenseService.Query(ctx, ctx.Query("start_date"), ctx.Query("end_date"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewExpenseReportResponse(*report)))
}
