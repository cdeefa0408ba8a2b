package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/pkg/apperrors"
)

// ErrNotFound is returned by every repository when a row does not exist.
var ErrNotFound = apperrors.ErrResourceNotFound

// ProgramRepository stores the program catalog. There is no update path.
type ProgramRepository interface {
	Create(ctx context.Context, program *models.Program) error
	GetByID(ctx context.Context, id int64) (*models.Program, error)
	List(ctx context.Context) ([]*models.Program, error)
}

// FeeRepository stores the fee catalog. List returns insertion order.
type FeeRepository interface {
	Create(ctx context.Context, fee *models.Fee) error
	GetByID(ctx context.Context, id int64) (*models.Fee, error)
	List(ctx context.Context) ([]*models.Fee, error)
}

// StudentRepository stores registry records. Status and loan flag are the only
// mutable fields.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	UpdateStatus(ctx context.Context, id int64, status models.StudentStatus) error
	UpdateLoanFlag(ctx context.Context, id int64, onLoan bool) error
	List(ctx context.Context, bucket models.Bucket) ([]*models.Student, error)
}

// PaymentRepository is the append-only payment log. Append must be visible to
// every read that starts after it returns.
type PaymentRepository interface {
	Append(ctx context.Context, payment *models.Payment) error
	ListByStudent(ctx context.Context, studentID int64) ([]*models.Payment, error)
	ListByStudents(ctx context.Context, studentIDs []int64) (map[int64][]*models.Payment, error)
}

// ExpenseRepository is the append-only expense log.
type ExpenseRepository interface {
	Append(ctx context.Context, expense *models.Expense) error
	ListByDateRange(ctx context.Context, from, to *time.Time) ([]*models.Expense, error)
}

var (
	_ ProgramRepository = (*PgProgramRepository)(nil)
	_ FeeRepository     = (*PgFeeRepository)(nil)
	_ StudentRepository = (*PgStudentRepository)(nil)
	_ PaymentRepository = (*PgPaymentRepository)(nil)
	_ ExpenseRepository = (*PgExpenseRepository)(nil)
)

// Repositories holds all the repository instances
type Repositories struct {
	ProgramRepository ProgramRepository
	FeeRepository     FeeRepository
	StudentRepository StudentRepository
	PaymentRepository PaymentRepository
	ExpenseRepository ExpenseRepository
}

// NewRepositories initializes the Postgres-backed repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		ProgramRepository: NewProgramRepository(db),
		FeeRepository:     NewFeeRepository(db),
		StudentRepository: NewStudentRepository(db),
		PaymentRepository: NewPaymentRepository(db),
		ExpenseRepository: NewExpenseRepository(db),
	}
}
