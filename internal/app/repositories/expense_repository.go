package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/pkg/logger"
	"github.com/eduserv/ledger/internal/pkg/money"
)

// PgExpenseRepository is the Postgres expense log.
type PgExpenseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewExpenseRepository creates a new PgExpenseRepository
func NewExpenseRepository(db *pgxpool.Pool) *PgExpenseRepository {
	return &PgExpenseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts one expense.
func (r *PgExpenseRepository) Append(ctx context.Context, expense *models.Expense) error {
	sql, args, err := r.sb.Insert("expenses").
		Columns("person_name", "amount_minor", "expense_date", "description").
		Values(expense.PersonName, expense.Amount.Minor(), expense.Date, expense.Description).
		Suffix("RETURNING id, recorded_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building append expense SQL")
		return fmt.Errorf("failed to build append expense query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&expense.ID, &expense.RecordedAt); err != nil {
		logger.Error().Err(err).Str("person", expense.PersonName).Msg("Error executing append expense query")
		return fmt.Errorf("error appending expense: %w", err)
	}
	return nil
}

func (r *PgExpenseRepository) rangeQuery(from, to *time.Time) (string, []interface{}, error) {
	q := r.sb.Select("id", "person_name", "amount_minor", "expense_date", "description", "recorded_at").
		From("expenses").
		OrderBy("expense_date ASC", "id ASC")
	if from != nil {
		q = q.Where(squirrel.GtOrEq{"expense_date": *from})
	}
	if to != nil {
		q = q.Where(squirrel.LtOrEq{"expense_date": *to})
	}
	return q.ToSql()
}

// ListByDateRange returns expenses with from <= date <= to. A nil bound is open.
func (r *PgExpenseRepository) ListByDateRange(ctx context.Context, from, to *time.Time) ([]*models.Expense, error) {
	sql, args, err := r.rangeQuery(from, to)
	if err != nil {
		logger.Error().Err(err).Msg("Error building list expenses SQL")
		return nil, fmt.Errorf("failed to build list expenses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list expenses query")
		return nil, fmt.Errorf("error querying expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*models.Expense{}
	for rows.Next() {
		e := &models.Expense{}
		var amount int64
		if err := rows.Scan(&e.ID, &e.PersonName, &amount, &e.Date, &e.Description, &e.RecordedAt); err != nil {
			logger.Error().Err(err).Msg("Error scanning expense row")
			return nil, fmt.Errorf("error scanning expense row: %w", err)
		}
		e.Amount = money.FromMinor(amount)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating expense rows")
		return nil, fmt.Errorf("error iterating expense rows: %w", err)
	}
	return expenses, nil
}
