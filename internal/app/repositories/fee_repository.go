package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/pkg/logger"
	"github.com/eduserv/ledger/internal/pkg/money"
)

var feeColumns = []string{"id", "name", "amount_minor", "created_at"}

// PgFeeRepository handles fee catalog database operations
type PgFeeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewFeeRepository creates a new PgFeeRepository
func NewFeeRepository(db *pgxpool.Pool) *PgFeeRepository {
	return &PgFeeRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a fee and fills its ID and CreatedAt.
func (r *PgFeeRepository) Create(ctx context.Context, fee *models.Fee) error {
	sql, args, err := r.sb.Insert("fees").
		Columns("name", "amount_minor").
		Values(fee.Name, fee.Amount.Minor()).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create fee SQL")
		return fmt.Errorf("failed to build create fee query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&fee.ID, &fee.CreatedAt); err != nil {
		logger.Error().Err(err).Str("name", fee.Name).Msg("Error executing create fee query")
		return fmt.Errorf("error creating fee: %w", err)
	}
	return nil
}

// GetByID retrieves a fee by ID
func (r *PgFeeRepository) GetByID(ctx context.Context, id int64) (*models.Fee, error) {
	sql, args, err := r.sb.Select(feeColumns...).
		From("fees").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get fee by ID SQL")
		return nil, fmt.Errorf("failed to build get fee query: %w", err)
	}

	fee, err := scanFee(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("feeID", id).Msg("Error scanning fee row")
		return nil, fmt.Errorf("error getting fee by ID: %w", err)
	}
	return fee, nil
}

// List returns the catalog in insertion order.
func (r *PgFeeRepository) List(ctx context.Context) ([]*models.Fee, error) {
	sql, args, err := r.sb.Select(feeColumns...).
		From("fees").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list fees SQL")
		return nil, fmt.Errorf("failed to build list fees query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list fees query")
		return nil, fmt.Errorf("error querying fees: %w", err)
	}
	defer rows.Close()

	fees := []*models.Fee{}
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning fee row during list")
			return nil, fmt.Errorf("error scanning fee row: %w", err)
		}
		fees = append(fees, fee)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating fee rows")
		return nil, fmt.Errorf("error iterating fee rows: %w", err)
	}
	return fees, nil
}

func scanFee(row pgx.Row) (*models.Fee, error) {
	f := &models.Fee{}
	var amount int64
	if err := row.Scan(&f.ID, &f.Name, &amount, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Amount = money.FromMinor(amount)
	return f, nil
}
