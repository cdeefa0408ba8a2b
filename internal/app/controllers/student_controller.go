package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduserv/ledger/internal/app/models/dto"
	"github.com/eduserv/ledger/internal/app/services"
	"github.com/eduserv/ledger/internal/middleware"
)

// StudentController handles the student registry
type StudentController struct {
	studentService services.StudentService
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService) *StudentController {
	return &StudentController{
		studentService: studentService,
	}
}

func studentResponse(v *services.StudentView) dto.StudentResponse {
	return dto.NewStudentResponse(v.Student, v.ProgramName, v.Balance)
}

// EnrollStudent handles POST /students
func (c *StudentController) EnrollStudent(ctx *gin.Context) {
	var req dto.EnrollStudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	view, err := c.studentService.Enroll(ctx, services.EnrollInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Contact:   req.Contacts,
		ProgramID: int64(req.ProgramID),
		IsOnLoan:  req.IsOnLoan,
		Status:    req.Status,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(studentResponse(view)))
}

// GetAllStudents handles GET /students?q=&bucket=
func (c *StudentController) GetAllStudents(ctx *gin.Context) {
	views, err := c.studentService.ListStudents(ctx, ctx.Query("q"), ctx.Query("bucket"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.StudentResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, studentResponse(v))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetSummary handles GET /students/summary
func (c *StudentController) GetSummary(ctx *gin.Context) {
	summary, err := c.studentService.Summary(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewSummaryResponse(
		summary.Total, summary.Counts, summary.TotalOutstanding, summary.TotalCredit,
	)))
}

// GetStudentByID handles GET /students/:id
func (c *StudentController) GetStudentByID(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "student")
	if !ok {
		return
	}

	view, err := c.studentService.GetStudent(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(studentResponse(view)))
}

// UpdateStatus handles PUT /students/:id/status
func (c *StudentController) UpdateStatus(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "student")
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	view, err := c.studentService.SetStatus(ctx, id, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(studentResponse(view)))
}

// UpdateLoanFlag handles PUT /students/:id/loan
func (c *StudentController) UpdateLoanFlag(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "student")
	if !ok {
		return
	}
	var req dto.UpdateLoanRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	view, err := c.studentService.SetLoanFlag(ctx, id, *req.IsOnLoan)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(studentResponse(view)))
}
