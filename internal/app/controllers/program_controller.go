package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduserv/ledger/internal/app/models/dto"
	"github.com/eduserv/ledger/internal/app/services"
	"github.com/eduserv/ledger/internal/middleware"
)

// ProgramController handles the program catalog
type ProgramController struct {
	programService services.ProgramService
}

// NewProgramController creates a new ProgramController
func NewProgramController(programService services.ProgramService) *ProgramController {
	return &ProgramController{
		programService: programService,
	}
}

// CreateProgram handles POST /programs
func (c *ProgramController) CreateProgram(ctx *gin.Context) {
	var req dto.CreateProgramRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	program, err := c.programService.CreateProgram(ctx, req.ProgramName, req.TuitionFee)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewProgramResponse(program)))
}

// GetProgramByID handles GET /programs/:id
func (c *ProgramController) GetProgramByID(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "program")
	if !ok {
		return
	}

	program, err := c.programService.GetProgramByID(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewProgramResponse(program)))
}

// GetAllPrograms handles GET /programs
func (c *ProgramController) GetAllPrograms(ctx *gin.Context) {
	programs, err := c.programService.ListPrograms(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.ProgramResponse, 0, len(programs))
	for _, p := range programs {
		resp = append(resp, dto.NewProgramResponse(p))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
