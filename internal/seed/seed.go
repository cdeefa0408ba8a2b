package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	appModels "github.com/eduserv/ledger/internal/app/models"
	appRepos "github.com/eduserv/ledger/internal/app/repositories"
	"github.com/eduserv/ledger/internal/pkg/money"
)

// DefaultPrograms is the starter program catalog.
var DefaultPrograms = []appModels.Program{
	{Name: "Certificate in Accounting", TuitionAmount: money.FromMinor(150_000)},
	{Name: "Diploma in Business Administration", TuitionAmount: money.FromMinor(320_000)},
	{Name: "Short Course in Computer Literacy", TuitionAmount: money.FromMinor(45_000)},
}

// DefaultFees is the starter fee catalog.
var DefaultFees = []appModels.Fee{
	{Name: "Registration", Amount: money.FromMinor(5_000)},
	{Name: "Examination", Amount: money.FromMinor(12_500)},
	{Name: "Library", Amount: money.FromMinor(2_000)},
}

// CreateDefaultData fills an empty program or fee catalog with the defaults.
// A catalog that already has rows is left alone, so reruns are harmless.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default catalog data...")
	var finalErr error

	programs, err := repos.ProgramRepository.List(ctx)
	if err != nil {
		return fmt.Errorf("listing programs: %w", err)
	}
	if len(programs) == 0 {
		for i := range DefaultPrograms {
			program := DefaultPrograms[i]
			if err := repos.ProgramRepository.Create(ctx, &program); err != nil {
				lgr.Error().Err(err).Str("program", program.Name).Msg("Error creating default program")
				finalErr = errors.Join(finalErr, err)
				continue
			}
			lgr.Info().Int64("programID", program.ID).Str("program", program.Name).Msg("Default program created")
		}
	} else {
		lgr.Debug().Int("count", len(programs)).Msg("Program catalog not empty, skipping")
	}

	fees, err := repos.FeeRepository.List(ctx)
	if err != nil {
		return errors.Join(finalErr, fmt.Errorf("listing fees: %w", err))
	}
	if len(fees) == 0 {
		for i := range DefaultFees {
			fee := DefaultFees[i]
			if err := repos.FeeRepository.Create(ctx, &fee); err != nil {
				lgr.Error().Err(err).Str("fee", fee.Name).Msg("Error creating default fee")
				finalErr = errors.Join(finalErr, err)
				continue
			}
			lgr.Info().Int64("feeID", fee.ID).Str("fee", fee.Name).Msg("Default fee created")
		}
	} else {
		lgr.Debug().Int("count", len(fees)).Msg("Fee catalog not empty, skipping")
	}

	return finalErr
}
