package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/pkg/dberrors"
	"github.com/eduserv/ledger/internal/pkg/logger"
	"github.com/eduserv/ledger/internal/pkg/money"
)

var studentColumns = []string{
	"id", "first_name", "last_name", "contact", "status", "is_on_loan",
	"program_id", "assessed_tuition_minor", "enrolled_at",
}

// PgStudentRepository handles student registry database operations
type PgStudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new PgStudentRepository
func NewStudentRepository(db *pgxpool.Pool) *PgStudentRepository {
	return &PgStudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a student. AssessedTuition must already hold the program's
// tuition at enrollment time.
func (r *PgStudentRepository) Create(ctx context.Context, student *models.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns("first_name", "last_name", "contact", "status", "is_on_loan", "program_id", "assessed_tuition_minor").
		Values(
			student.FirstName,
			student.LastName,
			student.Contact,
			string(student.Status),
			student.IsOnLoan,
			student.ProgramID,
			student.AssessedTuition.Minor(),
		).
		Suffix("RETURNING id, enrolled_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create student SQL")
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&student.ID, &student.EnrolledAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return fmt.Errorf("program %d: %w", student.ProgramID, ErrNotFound)
		}
		logger.Error().Err(err).Int64("programID", student.ProgramID).Msg("Error executing create student query")
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

// GetByID retrieves a student by ID
func (r *PgStudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).
		From("students").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get student by ID SQL")
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	student, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Int64("studentID", id).Msg("Error scanning student row")
		return nil, fmt.Errorf("error getting student by ID: %w", err)
	}
	return student, nil
}

// UpdateStatus sets the operator-maintained status.
func (r *PgStudentRepository) UpdateStatus(ctx context.Context, id int64, status models.StudentStatus) error {
	return r.updateColumn(ctx, id, "status", string(status))
}

// UpdateLoanFlag sets the on-loan flag.
func (r *PgStudentRepository) UpdateLoanFlag(ctx context.Context, id int64, onLoan bool) error {
	return r.updateColumn(ctx, id, "is_on_loan", onLoan)
}

func (r *PgStudentRepository) updateColumn(ctx context.Context, id int64, column string, value interface{}) error {
	sql, args, err := r.sb.Update("students").
		Set(column, value).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("column", column).Msg("Error building update student SQL")
		return fmt.Errorf("failed to build update student query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", id).Str("column", column).Msg("Error executing update student query")
		return fmt.Errorf("error updating student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgStudentRepository) listQuery(bucket models.Bucket) (string, []interface{}, error) {
	q := r.sb.Select(studentColumns...).
		From("students").
		OrderBy("last_name ASC", "first_name ASC", "id ASC")

	if bucket == models.BucketOnLoan {
		q = q.Where(squirrel.Eq{"is_on_loan": true})
	} else if status, ok := bucket.Status(); ok {
		q = q.Where(squirrel.Eq{"status": string(status)})
	}
	return q.ToSql()
}

// List returns the registry, or one bucket of it.
func (r *PgStudentRepository) List(ctx context.Context, bucket models.Bucket) ([]*models.Student, error) {
	sql, args, err := r.listQuery(bucket)
	if err != nil {
		logger.Error().Err(err).Msg("Error building list students SQL")
		return nil, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("bucket", string(bucket)).Msg("Error executing list students query")
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning student row during list")
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating student rows")
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}
	return students, nil
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	s := &models.Student{}
	var status string
	var tuition int64
	err := row.Scan(
		&s.ID,
		&s.FirstName,
		&s.LastName,
		&s.Contact,
		&status,
		&s.IsOnLoan,
		&s.ProgramID,
		&tuition,
		&s.EnrolledAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = models.StudentStatus(status)
	s.AssessedTuition = money.FromMinor(tuition)
	return s, nil
}
