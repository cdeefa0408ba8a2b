package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduserv/ledger/internal/app/ledger"
	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/app/repositories"
	"github.com/eduserv/ledger/internal/pkg/apperrors"
	"github.com/eduserv/ledger/internal/pkg/helpers"
	"github.com/eduserv/ledger/internal/pkg/metrics"
	"github.com/eduserv/ledger/internal/pkg/money"
	"github.com/eduserv/ledger/internal/pkg/validation"
)

// RecordExpenseInput is one expense as entered by an operator.
type RecordExpenseInput struct {
	PersonName  string
	Amount      money.Amount
	Date        string
	Description string
}

// ExpenseService defines the interface for expense log operations
type ExpenseService interface {
	RecordExpense(ctx context.Context, in RecordExpenseInput) (*models.Expense, error)
	// Query returns the expenses dated inside the inclusive range with their
	// total. Empty bounds are open.
	Query(ctx context.Context, startDate, endDate string) (*ledger.ExpenseReport, error)
}

type expenseServiceImpl struct {
	expenseRepo repositories.ExpenseRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewExpenseService creates a new expense service instance
func NewExpenseService(expenseRepo repositories.ExpenseRepository, log zerolog.Logger, now func() time.Time) ExpenseService {
	return &expenseServiceImpl{
		expenseRepo: expenseRepo,
		log:         log.With().Str("service", "expense").Logger(),
		now:         now,
	}
}

func (s *expenseServiceImpl) RecordExpense(ctx context.Context, in RecordExpenseInput) (*models.Expense, error) {
	err := validation.First(
		validation.NewStringValidation("person_name", in.PersonName).WithMaxLength(validation.NameMaxLength).Validate(),
		validation.PositiveAmount("amount", in.Amount),
		validation.NewStringValidation("description", in.Description).
			WithRequired(false).
			WithMaxLength(validation.DescriptionMaxLength).
			Validate(),
	)
	if err != nil {
		return nil, failed("record_expense", err)
	}
	date, err := helpers.ParseDate(in.Date)
	if err != nil {
		return nil, failed("record_expense", apperrors.NewValidationError("expense_date", err.Error()))
	}

	expense := &models.Expense{
		PersonName:  strings.TrimSpace(in.PersonName),
		Amount:      in.Amount,
		Date:        date,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.expenseRepo.Append(ctx, expense); err != nil {
		return nil, failed("record_expense", fmt.Errorf("error appending expense: %w", err))
	}

	metrics.ExpenseRecorded()
	s.log.Info().
		Int64("expenseID", expense.ID).
		Str("person", expense.PersonName).
		Int64("amountMinor", expense.Amount.Minor()).
		Str("date", helpers.FormatDate(expense.Date)).
		Msg("Expense recorded")
	return expense, nil
}

func (s *expenseServiceImpl) Query(ctx context.Context, startDate, endDate string) (*ledger.ExpenseReport, error) {
	from, err := helpers.ParseOptionalDate(startDate)
	if err != nil {
		return nil, apperrors.NewValidationError("start_date", err.Error())
	}
	to, err := helpers.ParseOptionalDate(endDate)
	if err != nil {
		return nil, apperrors.NewValidationError("end_date", err.Error())
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperrors.NewValidationError("end_date", "end_date must not be before start_date")
	}

	expenses, err := s.expenseRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying expenses: %w", err)
	}
	report, err := ledger.SummarizeExpenses(expenses, from, to, s.now())
	if err != nil {
		return nil, failed("query_expenses", err)
	}
	return &report, nil
}
