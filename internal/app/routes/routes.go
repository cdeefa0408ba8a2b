package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduserv/ledger/internal/app/controllers"
	"github.com/eduserv/ledger/internal/middleware"
	"github.com/eduserv/ledger/internal/pkg/metrics"
)

// Controllers groups every HTTP handler set the router mounts.
type Controllers struct {
	Program *controllers.ProgramController
	Fee     *controllers.FeeController
	Student *controllers.StudentController
	Payment *controllers.PaymentController
	Expense *controllers.ExpenseController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware, metricsPath string) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	if metricsPath != "" {
		router.GET(metricsPath, gin.WrapH(metrics.Handler()))
	}

	// API version group. Every route needs a session; mutations need a writer role.
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.JWTAuth())

	writer := authMiddleware.RequireWriter()

	programs := v1.Group("/programs")
	{
		programs.GET("", ctrl.Program.GetAllPrograms)
		programs.GET("/:id", ctrl.Program.GetProgramByID)
		programs.POST("", writer, ctrl.Program.CreateProgram)
	}

	fees := v1.Group("/fees")
	{
		fees.GET("", ctrl.Fee.GetAllFees)
		fees.GET("/:id", ctrl.Fee.GetFeeByID)
		fees.POST("", writer, ctrl.Fee.CreateFee)
	}

	students := v1.Group("/students")
	{
		students.GET("", ctrl.Student.GetAllStudents)
		students.GET("/summary", ctrl.Student.GetSummary)
		students.GET("/:id", ctrl.Student.GetStudentByID)
		students.POST("", writer, ctrl.Student.EnrollStudent)
		students.PUT("/:id/status", writer, ctrl.Student.UpdateStatus)
		students.PUT("/:id/loan", writer, ctrl.Student.UpdateLoanFlag)

		// Payments hang off the student they belong to
		students.GET("/:id/balance", ctrl.Payment.GetBalance)
		students.GET("/:id/payments", ctrl.Payment.GetHistory)
		students.GET("/:id/statement", ctrl.Payment.GetStatement)
		students.POST("/:id/payments", writer, ctrl.Payment.RecordPayment)
	}

	expenses := v1.Group("/expenses")
	{
		expenses.GET("", ctrl.Expense.QueryExpenses)
		expenses.POST("", writer, ctrl.Expense.RecordExpense)
	}
}
