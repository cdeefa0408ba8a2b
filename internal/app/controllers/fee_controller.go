package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduserv/ledger/internal/app/models/dto"
	"github.com/eduserv/ledger/internal/app/services"
	"github.com/eduserv/ledger/internal/middleware"
)

// FeeController handles the fee catalog
type FeeController struct {
	feeService services.FeeService
}

// NewFeeController creates a new FeeController
func NewFeeController(feeService services.FeeService) *FeeController {
	return &FeeController{feeService: feeService}
}

// CreateFee handles POST /fees
func (c *FeeController) CreateFee(ctx *gin.Context) {
	var req dto.CreateFeeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	fee, err := c.feeService.CreateFee(ctx, req.FeeName, req.FeeAmount)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewFeeResponse(fee)))
}

// GetFeeByID handles GET /fees/:id
func (c *FeeController) GetFeeByID(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "fee")
	if !ok {
		return
	}

	fee, err := c.feeService.GetFeeByID(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewFeeResponse(fee)))
}

// GetAllFees handles GET /fees
func (c *FeeController) GetAllFees(ctx *gin.Context) {
	fees, err := c.feeService.ListFees(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.FeeResponse, 0, len(fees))
	for _, f := range fees {
		resp = append(resp, dto.NewFeeResponse(f))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
