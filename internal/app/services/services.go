package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduserv/ledger/internal/app/repositories"
	"github.com/eduserv/ledger/internal/pkg/apperrors"
	"github.com/eduserv/ledger/internal/pkg/logger"
	"github.com/eduserv/ledger/internal/pkg/metrics"
)

// Services defined in this package:
// - ProgramService: program catalog
// - FeeService: fee catalog
// - StudentService: registry, status and loan flag, bucket projections
// - PaymentService: payment log, balances, histories and statements
// - ExpenseService: expense log and date-range reports
type Services struct {
	ProgramService ProgramService
	FeeService     FeeService
	StudentService StudentService
	PaymentService PaymentService
	ExpenseService ExpenseService
}

// Options carries the collaborators shared by every service.
type Options struct {
	// Logger defaults to the "services" component logger.
	Logger *zerolog.Logger
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// NewServices builds every service over one repository set.
func NewServices(repos *repositories.Repositories, opts Options) *Services {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	log := logger.Component("services")
	if opts.Logger != nil {
		log = *opts.Logger
	}

	balances := newBalanceReader(repos)
	return &Services{
		ProgramService: NewProgramService(repos.ProgramRepository, log),
		FeeService:     NewFeeService(repos.FeeRepository, log),
		StudentService: NewStudentService(repos.StudentRepository, repos.ProgramRepository, balances, log),
		PaymentService: NewPaymentService(repos, balances, log, opts.Now),
		ExpenseService: NewExpenseService(repos.ExpenseRepository, log, opts.Now),
	}
}

// notFound turns a repository miss into a resource-specific error and wraps
// anything else as an internal failure.
func notFound(err error, resource string, id interface{}, op string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NewNotFoundError(resource, id)
	}
	return fmt.Errorf("error %s: %w", op, err)
}

// failed records the error kind for metrics and returns err unchanged.
func failed(operation string, err error) error {
	if err != nil {
		metrics.OperationFailed(operation, err)
	}
	return err
}
