package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/app/repositories"
	"github.com/eduserv/ledger/internal/pkg/money"
)

func seeded(t *testing.T) (*repositories.Repositories, *models.Student) {
	t.Helper()
	ctx := context.Background()
	repos := NewStore().Repositories()

	program := &models.Program{Name: "Certificate in Catering", TuitionAmount: money.FromMajor(900000)}
	require.NoError(t, repos.ProgramRepository.Create(ctx, program))
	require.NoError(t, repos.FeeRepository.Create(ctx, &models.Fee{Name: "Uniform", Amount: money.FromMajor(40000)}))

	student := &models.Student{
		FirstName:       "Grace",
		LastName:        "Achieng",
		Status:          models.StatusNotCompleted,
		ProgramID:       program.ID,
		AssessedTuition: program.TuitionAmount,
	}
	require.NoError(t, repos.StudentRepository.Create(ctx, student))
	return repos, student
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	repos, student := seeded(t)

	got, err := repos.StudentRepository.GetByID(ctx, student.ID)
	require.NoError(t, err)
	got.AssessedTuition = money.FromMajor(1)
	got.Status = models.StatusCompleted

	again, err := repos.StudentRepository.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(900000), again.AssessedTuition)
	assert.Equal(t, models.StatusNotCompleted, again.Status)
}

func TestStudentBuckets(t *testing.T) {
	ctx := context.Background()
	repos, student := seeded(t)

	require.NoError(t, repos.StudentRepository.UpdateLoanFlag(ctx, student.ID, true))

	onLoan, err := repos.StudentRepository.List(ctx, models.BucketOnLoan)
	require.NoError(t, err)
	assert.Len(t, onLoan, 1)

	require.NoError(t, repos.StudentRepository.UpdateStatus(ctx, student.ID, models.StatusTravelled))
	notCompleted, err := repos.StudentRepository.List(ctx, models.BucketNotCompleted)
	require.NoError(t, err)
	assert.Empty(t, notCompleted)

	travelled, err := repos.StudentRepository.List(ctx, models.BucketTravelled)
	require.NoError(t, err)
	assert.Len(t, travelled, 1)

	assert.ErrorIs(t, repos.StudentRepository.UpdateStatus(ctx, 404, models.StatusCompleted), repositories.ErrNotFound)
}

func TestPaymentAppend(t *testing.T) {
	ctx := context.Background()
	repos, student := seeded(t)

	t.Run("unknown student", func(t *testing.T) {
		err := repos.PaymentRepository.Append(ctx, &models.Payment{StudentID: 99, Amount: 1})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("unknown fee", func(t *testing.T) {
		err := repos.PaymentRepository.Append(ctx, &models.Payment{StudentID: student.ID, Target: models.FeeTarget(9), Amount: 1})
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("concurrent appends get distinct ids", func(t *testing.T) {
		const n = 50
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, repos.PaymentRepository.Append(ctx, &models.Payment{
					StudentID: student.ID,
					Amount:    money.FromMajor(1000),
					Method:    models.MethodCash,
				}))
			}()
		}
		wg.Wait()

		list, err := repos.PaymentRepository.ListByStudent(ctx, student.ID)
		require.NoError(t, err)
		require.Len(t, list, n)
		seen := map[int64]bool{}
		for _, p := range list {
			assert.False(t, seen[p.ID])
			seen[p.ID] = true
		}
	})

	t.Run("student without payments", func(t *testing.T) {
		list, err := repos.PaymentRepository.ListByStudent(ctx, 12345)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestExpenseRange(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	for _, d := range []int{3, 31} {
		require.NoError(t, repos.ExpenseRepository.Append(ctx, &models.Expense{
			PersonName: "Driver",
			Amount:     money.FromMajor(1000),
			Date:       time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC),
		}))
	}
	require.NoError(t, repos.ExpenseRepository.Append(ctx, &models.Expense{
		PersonName: "Rent",
		Amount:     money.FromMajor(5000),
		Date:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}))

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	list, err := repos.ExpenseRepository.ListByDateRange(ctx, &from, &to)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err := repos.ExpenseRepository.ListByDateRange(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
