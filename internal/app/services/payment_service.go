package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduserv/ledger/internal/app/ledger"
	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/app/repositories"
	"github.com/eduserv/ledger/internal/pkg/apperrors"
	"github.com/eduserv/ledger/internal/pkg/auth"
	"github.com/eduserv/ledger/internal/pkg/helpers"
	"github.com/eduserv/ledger/internal/pkg/metrics"
	"github.com/eduserv/ledger/internal/pkg/money"
	"github.com/eduserv/ledger/internal/pkg/validation"
)

// RecordPaymentInput is one payment as entered by an operator. FeeID 0 means
// tuition. Date and Method are raw form values.
type RecordPaymentInput struct {
	StudentID int64
	FeeID     int64
	Amount    money.Amount
	Date      string
	Method    string
}

// PaymentService defines the interface for payment log operations
type PaymentService interface {
	RecordPayment(ctx context.Context, sess auth.Session, in RecordPaymentInput) (*models.Payment, error)
	BalanceOf(ctx context.Context, studentID int64) (*ledger.Balance, error)
	HistoryFor(ctx context.Context, studentID int64) (*ledger.History, error)
	StatementFor(ctx context.Context, studentID int64) (*ledger.Statement, error)
}

type paymentServiceImpl struct {
	studentRepo repositories.StudentRepository
	programRepo repositories.ProgramRepository
	feeRepo     repositories.FeeRepository
	paymentRepo repositories.PaymentRepository
	balances    *balanceReader
	log         zerolog.Logger
	now         func() time.Time
}

// NewPaymentService creates a new payment service instance
func NewPaymentService(repos *repositories.Repositories, balances *balanceReader, log zerolog.Logger, now func() time.Time) PaymentService {
	return &paymentServiceImpl{
		studentRepo: repos.StudentRepository,
		programRepo: repos.ProgramRepository,
		feeRepo:     repos.FeeRepository,
		paymentRepo: repos.PaymentRepository,
		balances:    balances,
		log:         log.With().Str("service", "payment").Logger(),
		now:         now,
	}
}

type parsedPayment struct {
	date   time.Time
	method models.PaymentMethod
}

func validatePayment(in RecordPaymentInput) (parsedPayment, error) {
	if err := validation.PositiveID("student_id", in.StudentID); err != nil {
		return parsedPayment{}, err
	}
	if in.FeeID < 0 {
		return parsedPayment{}, apperrors.NewValidationError("fee_id", "fee_id must not be negative")
	}
	if err := validation.PositiveAmount("amount_paid", in.Amount); err != nil {
		return parsedPayment{}, err
	}
	date, err := helpers.ParseDate(in.Date)
	if err != nil {
		return parsedPayment{}, apperrors.NewValidationError("payment_date", err.Error())
	}
	method, err := models.ParsePaymentMethod(in.Method)
	if err != nil {
		return parsedPayment{}, apperrors.NewValidationError("payment_method", err.Error())
	}
	return parsedPayment{date: date, method: method}, nil
}

// RecordPayment appends one payment. No stored balance is touched; the next
// BalanceOf replays the log including this entry.
func (s *paymentServiceImpl) RecordPayment(ctx context.Context, sess auth.Session, in RecordPaymentInput) (*models.Payment, error) {
	parsed, err := validatePayment(in)
	if err != nil {
		return nil, failed("record_payment", err)
	}

	student, err := s.studentRepo.GetByID(ctx, in.StudentID)
	if err != nil {
		return nil, failed("record_payment", notFound(err, "student", in.StudentID, "resolving student"))
	}
	target := models.TuitionTarget
	if in.FeeID != 0 {
		if _, err := s.feeRepo.GetByID(ctx, in.FeeID); err != nil {
			return nil, failed("record_payment", notFound(err, "fee", in.FeeID, "resolving fee"))
		}
		target = models.FeeTarget(in.FeeID)
	}

	bal, err := s.balances.balance(ctx, student)
	if err != nil {
		return nil, failed("record_payment", err)
	}
	if _, err := money.Add(bal.TotalPaid, in.Amount); err != nil {
		return nil, failed("record_payment", apperrors.NewValidationError("amount_paid", "amount_paid would overflow the student's paid total"))
	}

	recordedBy := sess.OperatorID
	if sess.IsZero() {
		recordedBy = auth.SystemOperator
	}

	payment := &models.Payment{
		StudentID:  in.StudentID,
		Target:     target,
		Amount:     in.Amount,
		Date:       parsed.date,
		Method:     parsed.method,
		RecordedBy: recordedBy,
	}
	if err := s.paymentRepo.Append(ctx, payment); err != nil {
		return nil, failed("record_payment", notFound(err, "student or fee", in.StudentID, "appending payment"))
	}

	metrics.PaymentRecorded(target.IsTuition(), payment.Amount.Minor())
	s.log.Info().
		Int64("paymentID", payment.ID).
		Int64("studentID", payment.StudentID).
		Int64("feeID", payment.Target.FeeID).
		Int64("amountMinor", payment.Amount.Minor()).
		Str("method", string(payment.Method)).
		Str("recordedBy", payment.RecordedBy).
		Msg("Payment recorded")
	return payment, nil
}

func (s *paymentServiceImpl) student(ctx context.Context, id int64) (*models.Student, error) {
	if err := validation.PositiveID("student_id", id); err != nil {
		return nil, err
	}
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "student", id, "retrieving student")
	}
	return student, nil
}

// BalanceOf replays the student's full log.
func (s *paymentServiceImpl) BalanceOf(ctx context.Context, studentID int64) (*ledger.Balance, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	bal, err := s.balances.balance(ctx, student)
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

// HistoryFor groups the student's payments by charge.
func (s *paymentServiceImpl) HistoryFor(ctx context.Context, studentID int64) (*ledger.History, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	in, err := s.balances.load(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	hist, err := ledger.GroupHistory(student.ID, in.fees, in.payments)
	if err != nil {
		return nil, fmt.Errorf("error grouping payments for student %d: %w", student.ID, err)
	}
	return &hist, nil
}

// StatementFor builds the statement data from a single read of the log, so
// the balance and the history in it always agree.
func (s *paymentServiceImpl) StatementFor(ctx context.Context, studentID int64) (*ledger.Statement, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	program, err := s.programRepo.GetByID(ctx, student.ProgramID)
	if err != nil {
		return nil, notFound(err, "program", student.ProgramID, "resolving program")
	}
	in, err := s.balances.load(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	st, err := ledger.BuildStatement(student, program.Name, in.fees, in.payments, s.now())
	if err != nil {
		return nil, fmt.Errorf("error building statement for student %d: %w", student.ID, err)
	}
	return &st, nil
}
