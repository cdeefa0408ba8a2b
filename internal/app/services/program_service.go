package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/app/repositories"
	"github.com/eduserv/ledger/internal/pkg/money"
	"github.com/eduserv/ledger/internal/pkg/validation"
)

// ProgramService defines the interface for program catalog operations
type ProgramService interface {
	CreateProgram(ctx context.Context, name string, tuition money.Amount) (*models.Program, error)
	GetProgramByID(ctx context.Context, id int64) (*models.Program, error)
	ListPrograms(ctx context.Context) ([]*models.Program, error)
}

// programServiceImpl implements the ProgramService interface
type programServiceImpl struct {
	programRepo repositories.ProgramRepository
	log         zerolog.Logger
}

// NewProgramService creates a new program service instance
func NewProgramService(programRepo repositories.ProgramRepository, log zerolog.Logger) ProgramService {
	return &programServiceImpl{
		programRepo: programRepo,
		log:         log.With().Str("service", "program").Logger(),
	}
}

// CreateProgram validates and appends a program to the catalog
func (s *programServiceImpl) CreateProgram(ctx context.Context, name string, tuition money.Amount) (*models.Program, error) {
	name = strings.TrimSpace(name)
	if err := validation.First(
		validation.NewStringValidation("program_name", name).WithMaxLength(validation.NameMaxLength).Validate(),
		validation.PositiveAmount("tuition_fee", tuition),
	); err != nil {
		return nil, failed("create_program", err)
	}

	program := &models.Program{Name: name, TuitionAmount: tuition}
	if err := s.programRepo.Create(ctx, program); err != nil {
		return nil, failed("create_program", fmt.Errorf("error creating program: %w", err))
	}

	s.log.Info().
		Int64("programID", program.ID).
		Str("name", program.Name).
		Int64("tuitionMinor", program.TuitionAmount.Minor()).
		Msg("Program created")
	return program, nil
}

// GetProgramByID retrieves a program by ID
func (s *programServiceImpl) GetProgramByID(ctx context.Context, id int64) (*models.Program, error) {
	if err := validation.PositiveID("program_id", id); err != nil {
		return nil, err
	}
	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "program", id, "retrieving program")
	}
	return program, nil
}

// ListPrograms retrieves all programs
func (s *programServiceImpl) ListPrograms(ctx context.Context) ([]*models.Program, error) {
	programs, err := s.programRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving programs: %w", err)
	}
	return programs, nil
}
