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

var programColumns = []string{"id", "name", "tuition_minor", "created_at"}

// PgProgramRepository handles program database operations
type PgProgramRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewProgramRepository creates a new PgProgramRepository
func NewProgramRepository(db *pgxpool.Pool) *PgProgramRepository {
	return &PgProgramRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PgProgramRepository) insertQuery(program *models.Program) (string, []interface{}, error) {
	return r.sb.Insert("programs").
		Columns("name", "tuition_minor").
		Values(program.Name, program.TuitionAmount.Minor()).
		Suffix("RETURNING id, created_at").
		ToSql()
}

// Create inserts a program and fills its ID and CreatedAt.
func (r *PgProgramRepository) Create(ctx context.Context, program *models.Program) error {
	sql, args, err := r.insertQuery(program)
	if err != nil {
		logger.Error().Err(err).Msg("Error building create program SQL")
		return fmt.Errorf("failed to build create program query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&program.ID, &program.CreatedAt)
	if err != nil {
		logger.Error().Err(err).Str("name", program.Name).Msg("Error executing create program query")
		return fmt.Errorf("error creating program: %w", err)
	}
	return nil
}

// GetByID retrieves a program by ID
func (r *PgProgramRepository) GetByID(ctx context.Context, id int64) (*models.Program, error) {
	sql, args, err := r.sb.Select(programColumns...).
		From("programs").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get program by ID SQL")
		return nil, fmt.Errorf("failed to build get program query: %w", err)
	}

	program, err := scanProgram(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("programID", id).Msg("Error scanning program row")
		return nil, fmt.Errorf("error getting program by ID: %w", err)
	}
	return program, nil
}

// List returns every program ordered by name.
func (r *PgProgramRepository) List(ctx context.Context) ([]*models.Program, error) {
	sql, args, err := r.sb.Select(programColumns...).
		From("programs").
		OrderBy("name ASC", "id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list programs SQL")
		return nil, fmt.Errorf("failed to build list programs query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list programs query")
		return nil, fmt.Errorf("error querying programs: %w", err)
	}
	defer rows.Close()

	programs := []*models.Program{}
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning program row during list")
			return nil, fmt.Errorf("error scanning program row: %w", err)
		}
		programs = append(programs, program)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating program rows")
		return nil, fmt.Errorf("error iterating program rows: %w", err)
	}
	return programs, nil
}

func scanProgram(row pgx.Row) (*models.Program, error) {
	p := &models.Program{}
	var tuition int64
	if err := row.Scan(&p.ID, &p.Name, &tuition, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.TuitionAmount = money.FromMinor(tuition)
	return p, nil
}
