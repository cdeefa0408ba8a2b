package services

import (
	"context"
	"fmt"

	"github.com/eduserv/ledger/internal/app/ledger"
	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/app/repositories"
	"github.com/eduserv/ledger/internal/pkg/metrics"
)

// balanceReader loads the inputs of a balance replay and runs it.
//
// Payments are always read before the fee catalog. Fees are append-only, so
// every fee a loaded payment references is guaranteed to be in the catalog
// read that follows.
type balanceReader struct {
	fees     repositories.FeeRepository
	payments repositories.PaymentRepository
}

func newBalanceReader(repos *repositories.Repositories) *balanceReader {
	return &balanceReader{fees: repos.FeeRepository, payments: repos.PaymentRepository}
}

func (b *balanceReader) feeLookup(ctx context.Context) (ledger.FeeLookup, error) {
	fees, err := b.fees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading fee catalog: %w", err)
	}
	return ledger.NewFeeLookup(fees), nil
}

// replayInput is one student's full log with the catalog it was read against.
type replayInput struct {
	payments []*models.Payment
	fees     ledger.FeeLookup
}

func (b *balanceReader) load(ctx context.Context, studentID int64) (replayInput, error) {
	payments, err := b.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return replayInput{}, fmt.Errorf("error loading payments: %w", err)
	}
	fees, err := b.feeLookup(ctx)
	if err != nil {
		return replayInput{}, err
	}
	return replayInput{payments: payments, fees: fees}, nil
}

// balance derives one student's balance from the log as of this call.
func (b *balanceReader) balance(ctx context.Context, student *models.Student) (ledger.Balance, error) {
	in, err := b.load(ctx, student.ID)
	if err != nil {
		return ledger.Balance{}, err
	}
	bal, err := ledger.Derive(student, in.fees, in.payments)
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("error deriving balance for student %d: %w", student.ID, err)
	}
	metrics.BalancesDerived(1)
	return bal, nil
}

// balances derives balances for many students with one payment query.
func (b *balanceReader) balances(ctx context.Context, students []*models.Student) (map[int64]ledger.Balance, error) {
	ids := make([]int64, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	logs, err := b.payments.ListByStudents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading payments: %w", err)
	}
	fees, err := b.feeLookup(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]ledger.Balance, len(students))
	for _, st := range students {
		bal, err := ledger.Derive(st, fees, logs[st.ID])
		if err != nil {
			return nil, fmt.Errorf("error deriving balance for student %d: %w", st.ID, err)
		}
		out[st.ID] = bal
	}
	metrics.BalancesDerived(len(students))
	return out, nil
}
