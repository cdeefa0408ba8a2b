package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduserv/ledger/internal/app/models/dto"
	"github.com/eduserv/ledger/internal/app/repositories/memory"
	"github.com/eduserv/ledger/internal/app/services"
	"github.com/eduserv/ledger/internal/bootstrap"
	"github.com/eduserv/ledger/internal/client"
	"github.com/eduserv/ledger/internal/config"
	"github.com/eduserv/ledger/internal/pkg/apperrors"
	"github.com/eduserv/ledger/internal/pkg/money"
	"github.com/eduserv/ledger/internal/viewsync"
)

type harness struct {
	client  *client.Client
	deps    *bootstrap.Dependencies
	student int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("DB_DRIVER", config.DriverMemory)
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	deps := bootstrap.BuildDependencies(cfg, memory.NewStore().Repositories(), bootstrap.NewLogger(cfg))
	srv := httptest.NewServer(bootstrap.SetupRouter(cfg, deps))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	program, err := deps.Services.ProgramService.CreateProgram(ctx, "Diploma in Logistics", money.FromMajor(3_000_000))
	require.NoError(t, err)
	view, err := deps.Services.StudentService.Enroll(ctx, services.EnrollInput{
		FirstName: "Amina", LastName: "Okello", Contact: "0700 000 001", ProgramID: program.ID,
	})
	require.NoError(t, err)

	c, err := client.New(client.Options{BaseURL: srv.URL + "/api/v1", RequestsPerSecond: 1000})
	require.NoError(t, err)
	return &harness{client: c, deps: deps, student: view.Student.ID}
}

func amount(t *testing.T, s string) *money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	require.NoError(t, err)
	return &a
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := client.New(client.Options{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestClientRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("list and pay", func(t *testing.T) {
		// act
		students, err := h.client.ListStudents(ctx, "not_completed", "okel")
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, money.FromMajor(3_000_000), students[0].Balance)

		payment, err := h.client.RecordPayment(ctx, h.student, dto.RecordPaymentRequest{
			AmountPaid:    amount(t, "1200000"),
			PaymentDate:   "2024-01-10",
			PaymentMethod: "Cash",
		})
		require.NoError(t, err)

		// assert
		assert.Equal(t, "system", payment.RecordedBy)
		bal, err := h.client.Balance(ctx, h.student)
		require.NoError(t, err)
		assert.Equal(t, money.FromMajor(1_800_000), bal.Balance)
	})

	t.Run("validation error carries field", func(t *testing.T) {
		_, err := h.client.RecordPayment(ctx, h.student, dto.RecordPaymentRequest{
			AmountPaid:    amount(t, "0"),
			PaymentDate:   "2024-01-10",
			PaymentMethod: "cash",
		})

		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "amount_paid", apiErr.Field)
	})

	t.Run("unknown student is not found", func(t *testing.T) {
		_, err := h.client.Balance(ctx, 9999)
		assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	})

	t.Run("catalogs, summary and expenses", func(t *testing.T) {
		programs, err := h.client.ListPrograms(ctx)
		require.NoError(t, err)
		assert.Len(t, programs, 1)

		fees, err := h.client.ListFees(ctx)
		require.NoError(t, err)
		assert.Empty(t, fees)

		summary, err := h.client.Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Total)

		report, err := h.client.QueryExpenses(ctx, "2024-01-01", "2024-01-31")
		require.NoError(t, err)
		assert.Equal(t, "Expense Report from 2024-01-01 to 2024-01-31", report.Title)
		assert.Zero(t, report.Total)
	})
}

// A finance view fed by the API shows a payment before the next poll and
// settles on the server's figure afterwards.
func TestFinanceViewOverAPI(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := viewsync.New(viewsync.Options{})
	defer svc.Stop()

	fetch := func(ctx context.Context) ([]dto.StudentResponse, error) {
		return h.client.ListStudents(ctx, "", "")
	}
	key := func(s dto.StudentResponse) int64 { return s.ID }
	sub, err := viewsync.Subscribe[int64, dto.StudentResponse](ctx, svc, viewsync.ViewFinance, fetch, key)
	require.NoError(t, err)

	row := sub.Snapshot()[0]
	patched := row
	patched.Balance = row.Balance - money.FromMajor(500_000)

	err = sub.Write(ctx, patched, func(ctx context.Context) error {
		_, err := h.client.RecordPayment(ctx, row.ID, dto.RecordPaymentRequest{
			AmountPaid:    amount(t, "500000"),
			PaymentDate:   "2024-03-01",
			PaymentMethod: "bank transfer",
		})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(2_500_000), sub.Snapshot()[0].Balance)

	require.NoError(t, sub.Refresh(ctx))
	assert.Equal(t, money.FromMajor(2_500_000), sub.Snapshot()[0].Balance)
	assert.Zero(t, sub.Status().Pending)

	// rejected write rolls back
	err = sub.Write(ctx, dto.StudentResponse{ID: row.ID, Balance: 0}, func(ctx context.Context) error {
		_, err := h.client.RecordPayment(ctx, row.ID, dto.RecordPaymentRequest{
			AmountPaid: amount(t, "-5"), PaymentDate: "2024-03-02", PaymentMethod: "cash",
		})
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, money.FromMajor(2_500_000), sub.Snapshot()[0].Balance)
}
