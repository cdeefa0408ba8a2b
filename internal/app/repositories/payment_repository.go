package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/pkg/dberrors"
	"github.com/eduserv/ledger/internal/pkg/logger"
	"github.com/eduserv/ledger/internal/pkg/money"
)

var paymentColumns = []string{
	"id", "student_id", "fee_id", "amount_minor", "payment_date", "method", "recorded_at", "recorded_by",
}

// PgPaymentRepository is the Postgres payment log. The table carries
// triggers that reject UPDATE and DELETE, so this type only inserts and reads.
type PgPaymentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPaymentRepository creates a new PgPaymentRepository
func NewPaymentRepository(db *pgxpool.Pool) *PgPaymentRepository {
	return &PgPaymentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PgPaymentRepository) appendQuery(p *models.Payment) (string, []interface{}, error) {
	var feeID interface{}
	if !p.Target.IsTuition() {
		feeID = p.Target.FeeID
	}
	return r.sb.Insert("payments").
		Columns("student_id", "fee_id", "amount_minor", "payment_date", "method", "recorded_by").
		Values(p.StudentID, feeID, p.Amount.Minor(), p.Date, string(p.Method), p.RecordedBy).
		Suffix("RETURNING id, recorded_at").
		ToSql()
}

// Append inserts one payment. The row is committed when Append returns.
func (r *PgPaymentRepository) Append(ctx context.Context, payment *models.Payment) error {
	sql, args, err := r.appendQuery(payment)
	if err != nil {
		logger.Error().Err(err).Msg("Error building append payment SQL")
		return fmt.Errorf("failed to build append payment query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&payment.ID, &payment.RecordedAt); err != nil {
		switch {
		case dberrors.IsForeignKeyViolation(err):
			return fmt.Errorf("payment references missing student or fee: %w", ErrNotFound)
		case dberrors.IsCheckViolation(err):
			return fmt.Errorf("payment amount rejected by storage: %w", err)
		}
		logger.Error().Err(err).Int64("studentID", payment.StudentID).Msg("Error executing append payment query")
		return fmt.Errorf("error appending payment: %w", err)
	}
	return nil
}

// ListByStudent returns a student's payments ordered by id.
func (r *PgPaymentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Payment, error) {
	byStudent, err := r.ListByStudents(ctx, []int64{studentID})
	if err != nil {
		return nil, err
	}
	if list, ok := byStudent[studentID]; ok {
		return list, nil
	}
	return []*models.Payment{}, nil
}

func (r *PgPaymentRepository) listQuery(studentIDs []int64) (string, []interface{}, error) {
	return r.sb.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"student_id": studentIDs}).
		OrderBy("student_id ASC", "id ASC").
		ToSql()
}

// ListByStudents loads the payments of several students in one query.
// Students without payments are absent from the map.
func (r *PgPaymentRepository) ListByStudents(ctx context.Context, studentIDs []int64) (map[int64][]*models.Payment, error) {
	result := make(map[int64][]*models.Payment, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}

	sql, args, err := r.listQuery(studentIDs)
	if err != nil {
		logger.Error().Err(err).Msg("Error building list payments SQL")
		return nil, fmt.Errorf("failed to build list payments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int("students", len(studentIDs)).Msg("Error executing list payments query")
		return nil, fmt.Errorf("error querying payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning payment row")
			return nil, fmt.Errorf("error scanning payment row: %w", err)
		}
		result[p.StudentID] = append(result[p.StudentID], p)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating payment rows")
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return result, nil
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	p := &models.Payment{}
	var feeID *int64
	var amount int64
	var method string
	err := row.Scan(&p.ID, &p.StudentID, &feeID, &amount, &p.Date, &method, &p.RecordedAt, &p.RecordedBy)
	if err != nil {
		return nil, err
	}
	if feeID != nil {
		p.Target = models.FeeTarget(*feeID)
	}
	p.Amount = money.FromMinor(amount)
	p.Method = models.PaymentMethod(method)
	return p, nil
}
