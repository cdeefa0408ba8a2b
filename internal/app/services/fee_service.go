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

// FeeService defines the interface for fee catalog operations
type FeeService interface {
	CreateFee(ctx context.Context, name string, amount money.Amount) (*models.Fee, error)
	GetFeeByID(ctx context.Context, id int64) (*models.Fee, error)
	// ListFees returns the catalog in display (insertion) order.
	ListFees(ctx context.Context) ([]*models.Fee, error)
}

type feeServiceImpl struct {
	feeRepo repositories.FeeRepository
	log     zerolog.Logger
}

// NewFeeService creates a new fee service instance
func NewFeeService(feeRepo repositories.FeeRepository, log zerolog.Logger) FeeService {
	return &feeServiceImpl{
		feeRepo: feeRepo,
		log:     log.With().Str("service", "fee").Logger(),
	}
}

func (s *feeServiceImpl) CreateFee(ctx context.Context, name string, amount money.Amount) (*models.Fee, error) {
	name = strings.TrimSpace(name)
	if err := validation.First(
		validation.NewStringValidation("fee_name", name).WithMaxLength(validation.NameMaxLength).Validate(),
		validation.PositiveAmount("fee_amount", amount),
	); err != nil {
		return nil, failed("create_fee", err)
	}

	fee := &models.Fee{Name: name, Amount: amount}
	if err := s.feeRepo.Create(ctx, fee); err != nil {
		return nil, failed("create_fee", fmt.Errorf("error creating fee: %w", err))
	}

	s.log.Info().Int64("feeID", fee.ID).Str("name", fee.Name).Int64("amountMinor", fee.Amount.Minor()).Msg("Fee created")
	return fee, nil
}

func (s *feeServiceImpl) GetFeeByID(ctx context.Context, id int64) (*models.Fee, error) {
	if err := validation.PositiveID("fee_id", id); err != nil {
		return nil, err
	}
	fee, err := s.feeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "fee", id, "retrieving fee")
	}
	return fee, nil
}

func (s *feeServiceImpl) ListFees(ctx context.Context) ([]*models.Fee, error) {
	fees, err := s.feeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving fees: %w", err)
	}
	return fees, nil
}
