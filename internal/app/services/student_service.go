package services

import (
	"context"
	"fmt"
	"strings"

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

// EnrollInput is the enrollment form. Status is optional and defaults to
// "not completed".
type EnrollInput struct {
	FirstName string
	LastName  string
	Contact   string
	ProgramID int64
	IsOnLoan  bool
	Status    string
}

// StudentView is a registry record with its program name and live balance.
type StudentView struct {
	Student     *models.Student
	ProgramName string
	Balance     ledger.Balance
}

// RegistrySummary counts students per bucket for the dashboard.
type RegistrySummary struct {
	Total  int
	Counts map[models.Bucket]int
	// TotalOutstanding sums positive tuition balances; TotalCredit sums overpayments.
	TotalOutstanding money.Amount
	TotalCredit      money.Amount
}

// StudentService defines the interface for registry operations
type StudentService interface {
	Enroll(ctx context.Context, in EnrollInput) (*StudentView, error)
	SetStatus(ctx context.Context, id int64, status string) (*StudentView, error)
	SetLoanFlag(ctx context.Context, id int64, onLoan bool) (*StudentView, error)
	GetStudent(ctx context.Context, id int64) (*StudentView, error)
	// ListStudents filters by bucket, then by a case-insensitive substring
	// of "first last" or contact. Empty arguments mean no filter.
	ListStudents(ctx context.Context, query, bucket string) ([]*StudentView, error)
	Summary(ctx context.Context) (*RegistrySummary, error)
}

type studentServiceImpl struct {
	studentRepo repositories.StudentRepository
	programRepo repositories.ProgramRepository
	balances    *balanceReader
	log         zerolog.Logger
}

// NewStudentService creates a new student service instance
func NewStudentService(
	studentRepo repositories.StudentRepository,
	programRepo repositories.ProgramRepository,
	balances *balanceReader,
	log zerolog.Logger,
) StudentService {
	return &studentServiceImpl{
		studentRepo: studentRepo,
		programRepo: programRepo,
		balances:    balances,
		log:         log.With().Str("service", "student").Logger(),
	}
}

func validateEnrollment(in EnrollInput) (models.StudentStatus, error) {
	err := validation.First(
		validation.NewStringValidation("firstname", in.FirstName).WithMaxLength(validation.NameMaxLength).Validate(),
		validation.NewStringValidation("lastname", in.LastName).WithMaxLength(validation.NameMaxLength).Validate(),
		validation.NewStringValidation("contacts", in.Contact).WithMaxLength(validation.ContactMaxLength).Validate(),
		validation.PositiveID("program_id", in.ProgramID),
	)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Status) == "" {
		return models.StatusNotCompleted, nil
	}
	status, err := models.ParseStudentStatus(in.Status)
	if err != nil {
		return "", apperrors.NewValidationError("status", err.Error())
	}
	return status, nil
}

// Enroll snapshots the program's tuition onto a new student record.
func (s *studentServiceImpl) Enroll(ctx context.Context, in EnrollInput) (*StudentView, error) {
	status, err := validateEnrollment(in)
	if err != nil {
		return nil, failed("enroll", err)
	}

	program, err := s.programRepo.GetByID(ctx, in.ProgramID)
	if err != nil {
		return nil, failed("enroll", notFound(err, "program", in.ProgramID, "resolving program"))
	}

	student := &models.Student{
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Contact:         strings.TrimSpace(in.Contact),
		Status:          status,
		IsOnLoan:        in.IsOnLoan,
		ProgramID:       program.ID,
		AssessedTuition: program.TuitionAmount,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, failed("enroll", notFound(err, "program", in.ProgramID, "creating student"))
	}

	metrics.StudentEnrolled()
	s.log.Info().
		Int64("studentID", student.ID).
		Int64("programID", program.ID).
		Int64("assessedTuitionMinor", student.AssessedTuition.Minor()).
		Bool("isOnLoan", student.IsOnLoan).
		Msg("Student enrolled")

	return s.view(ctx, student, program.Name)
}

// SetStatus overwrites the status. Any status may replace any other.
func (s *studentServiceImpl) SetStatus(ctx context.Context, id int64, status string) (*StudentView, error) {
	if err := validation.PositiveID("student_id", id); err != nil {
		return nil, failed("set_status", err)
	}
	parsed, err := models.ParseStudentStatus(status)
	if err != nil {
		return nil, failed("set_status", apperrors.NewValidationError("status", err.Error()))
	}

	if err := s.studentRepo.UpdateStatus(ctx, id, parsed); err != nil {
		return nil, failed("set_status", notFound(err, "student", id, "updating status"))
	}
	s.log.Info().Int64("studentID", id).Str("status", string(parsed)).Msg("Student status updated")
	return s.GetStudent(ctx, id)
}

func (s *studentServiceImpl) SetLoanFlag(ctx context.Context, id int64, onLoan bool) (*StudentView, error) {
	if err := validation.PositiveID("student_id", id); err != nil {
		return nil, failed("set_loan_flag", err)
	}
	if err := s.studentRepo.UpdateLoanFlag(ctx, id, onLoan); err != nil {
		return nil, failed("set_loan_flag", notFound(err, "student", id, "updating loan flag"))
	}
	s.log.Info().Int64("studentID", id).Bool("isOnLoan", onLoan).Msg("Student loan flag updated")
	return s.GetStudent(ctx, id)
}

func (s *studentServiceImpl) GetStudent(ctx context.Context, id int64) (*StudentView, error) {
	if err := validation.PositiveID("student_id", id); err != nil {
		return nil, err
	}
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "student", id, "retrieving student")
	}
	programName, err := s.programName(ctx, student.ProgramID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, student, programName)
}

func (s *studentServiceImpl) ListStudents(ctx context.Context, query, bucket string) ([]*StudentView, error) {
	b, err := models.ParseBucket(bucket)
	if err != nil {
		return nil, apperrors.NewValidationError("bucket", err.Error())
	}

	students, err := s.studentRepo.List(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	matched := students[:0]
	for _, st := range students {
		if helpers.MatchesSearch(query, st.FirstName, st.LastName, st.Contact) {
			matched = append(matched, st)
		}
	}

	names, err := s.programNames(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := s.balances.balances(ctx, matched)
	if err != nil {
		return nil, err
	}

	views := make([]*StudentView, 0, len(matched))
	for _, st := range matched {
		views = append(views, &StudentView{Student: st, ProgramName: names[st.ProgramID], Balance: balances[st.ID]})
	}
	return views, nil
}

func (s *studentServiceImpl) Summary(ctx context.Context) (*RegistrySummary, error) {
	students, err := s.studentRepo.List(ctx, models.BucketAll)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	balances, err := s.balances.balances(ctx, students)
	if err != nil {
		return nil, err
	}

	sum := &RegistrySummary{Total: len(students), Counts: make(map[models.Bucket]int, len(models.Buckets))}
	for _, b := range models.Buckets {
		sum.Counts[b] = 0
	}
	for _, st := range students {
		for _, b := range models.Buckets {
			if b.Matches(st) {
				sum.Counts[b]++
			}
		}
		var err error
		if h := balances[st.ID].Headline(); h > 0 {
			sum.TotalOutstanding, err = money.Add(sum.TotalOutstanding, h)
		} else {
			sum.TotalCredit, err = money.Sub(sum.TotalCredit, h)
		}
		if err != nil {
			return nil, failed("summary", err)
		}
	}
	return sum, nil
}

func (s *studentServiceImpl) view(ctx context.Context, student *models.Student, programName string) (*StudentView, error) {
	bal, err := s.balances.balance(ctx, student)
	if err != nil {
		return nil, err
	}
	return &StudentView{Student: student, ProgramName: programName, Balance: bal}, nil
}

func (s *studentServiceImpl) programName(ctx context.Context, id int64) (string, error) {
	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		return "", notFound(err, "program", id, "resolving program")
	}
	return program.Name, nil
}

func (s *studentServiceImpl) programNames(ctx context.Context) (map[int64]string, error) {
	programs, err := s.programRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving programs: %w", err)
	}
	names := make(map[int64]string, len(programs))
	for _, p := range programs {
		names[p.ID] = p.Name
	}
	return names, nil
}
