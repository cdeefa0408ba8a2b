package services

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/app/repositories"
	"github.com/eduserv/ledger/internal/app/repositories/memory"
	"github.com/eduserv/ledger/internal/pkg/apperrors"
	"github.com/eduserv/ledger/internal/pkg/auth"
	"github.com/eduserv/ledger/internal/pkg/money"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestServices(t *testing.T) (*Services, *repositories.Repositories) {
	t.Helper()
	repos := memory.NewStore().Repositories()
	nop := zerolog.Nop()
	svc := NewServices(repos, Options{
		Logger: &nop,
		Now:    func() time.Time { return testNow },
	})
	return svc, repos
}

func mustAmount(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	require.NoError(t, err)
	return a
}

// enrollLogistics runs Scenario A's setup: one program at 3,000,000 and one student.
func enrollLogistics(t *testing.T, svc *Services) *StudentView {
	t.Helper()
	ctx := context.Background()
	program, err := svc.ProgramService.CreateProgram(ctx, "Diploma in Logistics", money.FromMajor(3000000))
	require.NoError(t, err)

	view, err := svc.StudentService.Enroll(ctx, EnrollInput{
		FirstName: "Annet",
		LastName:  "Nakato",
		Contact:   "+256 772 000111",
		ProgramID: program.ID,
	})
	require.NoError(t, err)
	return view
}

func tuitionPayment(studentID int64, amount money.Amount, date, method string) RecordPaymentInput {
	return RecordPaymentInput{StudentID: studentID, Amount: amount, Date: date, Method: method}
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots tuition and defaults status", func(t *testing.T) {
		// arrange
		svc, _ := newTestServices(t)

		// act
		view := enrollLogistics(t, svc)

		// assert
		assert.NotZero(t, view.Student.ID)
		assert.Equal(t, money.FromMajor(3000000), view.Student.AssessedTuition)
		assert.Equal(t, models.StatusNotCompleted, view.Student.Status)
		assert.Equal(t, "Diploma in Logistics", view.ProgramName)
		assert.Equal(t, money.FromMajor(3000000), view.Balance.Headline())
	})

	t.Run("explicit initial status and loan flag", func(t *testing.T) {
		svc, _ := newTestServices(t)
		program, err := svc.ProgramService.CreateProgram(ctx, "Certificate in Catering", money.FromMajor(900000))
		require.NoError(t, err)

		view, err := svc.StudentService.Enroll(ctx, EnrollInput{
			FirstName: "Joel",
			LastName:  "Okello",
			Contact:   "joel@example.org",
			ProgramID: program.ID,
			IsOnLoan:  true,
			Status:    "Completed",
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, view.Student.Status)
		assert.True(t, view.Student.IsOnLoan)
	})

	t.Run("validation errors name the field", func(t *testing.T) {
		svc, _ := newTestServices(t)
		tests := []struct {
			name  string
			in    EnrollInput
			field string
		}{
			{"first name", EnrollInput{LastName: "B", Contact: "c", ProgramID: 1}, "firstname"},
			{"last name", EnrollInput{FirstName: "A", LastName: "  ", Contact: "c", ProgramID: 1}, "lastname"},
			{"contact", EnrollInput{FirstName: "A", LastName: "B", ProgramID: 1}, "contacts"},
			{"program", EnrollInput{FirstName: "A", LastName: "B", Contact: "c"}, "program_id"},
			{"status", EnrollInput{FirstName: "A", LastName: "B", Contact: "c", ProgramID: 1, Status: "graduated"}, "status"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.StudentService.Enroll(ctx, tt.in)
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				assert.Equal(t, tt.field, apperrors.FieldOf(err))
			})
		}
	})

	t.Run("unknown program is not found", func(t *testing.T) {
		svc, _ := newTestServices(t)
		_, err := svc.StudentService.Enroll(ctx, EnrollInput{FirstName: "A", LastName: "B", Contact: "c", ProgramID: 42})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
		assert.False(t, apperrors.IsValidation(err))
	})
}

func TestPaymentScenarios(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	student := enrollLogistics(t, svc)
	id := student.Student.ID

	// Scenario B
	_, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(id, money.FromMajor(1200000), "2024-01-10", "cash"))
	require.NoError(t, err)
	bal, err := svc.PaymentService.BalanceOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(1800000), bal.Headline())

	_, err = svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(id, money.FromMajor(1800000), "2024-02-10", "bank_transfer"))
	require.NoError(t, err)
	bal, err = svc.PaymentService.BalanceOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), bal.Headline())

	hist, err := svc.PaymentService.HistoryFor(ctx, id)
	require.NoError(t, err)
	require.Len(t, hist.Groups, 1)
	assert.Len(t, hist.Groups[0].Payments, 2)
	assert.Equal(t, money.FromMajor(3000000), hist.Groups[0].Subtotal)

	// Scenario C, on a fresh student with 1,800,000 remaining
	other, err := svc.StudentService.Enroll(ctx, EnrollInput{FirstName: "Peter", LastName: "Mugisha", Contact: "0700", ProgramID: student.Student.ProgramID})
	require.NoError(t, err)
	_, err = svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(other.Student.ID, money.FromMajor(1200000), "2024-01-10", "cash"))
	require.NoError(t, err)
	_, err = svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(other.Student.ID, money.FromMajor(2000000), "2024-02-10", "cash"))
	require.NoError(t, err)
	bal, err = svc.PaymentService.BalanceOf(ctx, other.Student.ID)
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(-200000), bal.Headline())

	again, err := svc.PaymentService.BalanceOf(ctx, other.Student.ID)
	require.NoError(t, err)
	assert.Equal(t, bal, again, "derivation is idempotent")
}

func TestRecordPaymentValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	id := enrollLogistics(t, svc).Student.ID

	tests := []struct {
		name  string
		in    RecordPaymentInput
		field string
	}{
		{"zero amount", tuitionPayment(id, 0, "2024-01-10", "cash"), "amount_paid"},
		{"negative amount", tuitionPayment(id, mustAmount(t, "-5"), "2024-01-10", "cash"), "amount_paid"},
		{"bad date", tuitionPayment(id, money.FromMajor(1), "10/01/2024", "cash"), "payment_date"},
		{"empty date", tuitionPayment(id, money.FromMajor(1), "", "cash"), "payment_date"},
		{"bad method", tuitionPayment(id, money.FromMajor(1), "2024-01-10", "cheque"), "payment_method"},
		{"negative fee", RecordPaymentInput{StudentID: id, FeeID: -1, Amount: 1, Date: "2024-01-10", Method: "cash"}, "fee_id"},
		{"validation before lookup", tuitionPayment(999, 0, "2024-01-10", "cash"), "amount_paid"},
		{"above cap", tuitionPayment(id, money.MaxAmount+1, "2024-01-10", "cash"), "amount_paid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, tt.in)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.FieldOf(err))
		})
	}

	t.Run("failed payments leave the log untouched", func(t *testing.T) {
		hist, err := svc.PaymentService.HistoryFor(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, hist.Groups)
	})

	t.Run("smallest positive unit succeeds", func(t *testing.T) {
		p, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(id, mustAmount(t, "0.01"), "2024-01-10", "cash"))
		require.NoError(t, err)
		assert.Equal(t, money.FromMinor(1), p.Amount)

		bal, err := svc.PaymentService.BalanceOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, mustAmount(t, "2999999.99"), bal.Headline())
	})

	t.Run("method labels normalize", func(t *testing.T) {
		p, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(id, money.FromMajor(1), "2024-01-11", "Credit Card"))
		require.NoError(t, err)
		assert.Equal(t, models.MethodCard, p.Method)
	})
}

func TestRecordPaymentReferences(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	id := enrollLogistics(t, svc).Student.ID
	fee, err := svc.FeeService.CreateFee(ctx, "Medical Check", money.FromMajor(120000))
	require.NoError(t, err)

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(999, money.FromMajor(1), "2024-01-10", "cash"))
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("unknown fee", func(t *testing.T) {
		in := tuitionPayment(id, money.FromMajor(1), "2024-01-10", "cash")
		in.FeeID = 77
		_, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, in)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("fee payment is reported apart from tuition", func(t *testing.T) {
		in := tuitionPayment(id, money.FromMajor(100000), "2024-01-12", "online")
		in.FeeID = fee.ID
		p, err := svc.PaymentService.RecordPayment(ctx, auth.Session{OperatorID: "bursar-1"}, in)
		require.NoError(t, err)
		assert.Equal(t, "bursar-1", p.RecordedBy)

		bal, err := svc.PaymentService.BalanceOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, money.FromMajor(3000000), bal.Headline())
		require.Len(t, bal.Fees, 1)
		assert.Equal(t, money.FromMajor(20000), bal.Fees[0].Outstanding)

		hist, err := svc.PaymentService.HistoryFor(ctx, id)
		require.NoError(t, err)
		require.Len(t, hist.Groups, 1)
		assert.Equal(t, "Medical Check", hist.Groups[0].Label)
	})

	t.Run("system operator without a session", func(t *testing.T) {
		p, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(id, money.FromMajor(5), "2024-01-13", "cash"))
		require.NoError(t, err)
		assert.Equal(t, auth.SystemOperator, p.RecordedBy)
	})
}

func TestConcurrentPaymentsAreNotLost(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	id := enrollLogistics(t, svc).Student.ID

	before, err := svc.PaymentService.BalanceOf(ctx, id)
	require.NoError(t, err)

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(id, money.FromMajor(1000), "2024-01-10", "cash"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	hist, err := svc.PaymentService.HistoryFor(ctx, id)
	require.NoError(t, err)
	require.Len(t, hist.Groups, 1)
	assert.Len(t, hist.Groups[0].Payments, n)

	after, err := svc.PaymentService.BalanceOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(n*1000), before.Headline()-after.Headline())
}

// repricedPrograms reports a different tuition for every program once active,
// standing in for a catalog whose prices moved after enrollment.
type repricedPrograms struct {
	repositories.ProgramRepository
	mu      sync.Mutex
	tuition money.Amount
}

func (r *repricedPrograms) reprice(a money.Amount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tuition = a
}

func (r *repricedPrograms) GetByID(ctx context.Context, id int64) (*models.Program, error) {
	p, err := r.ProgramRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tuition != 0 {
		p.TuitionAmount = r.tuition
	}
	return p, nil
}

func TestAssessedTuitionIsSnapshotted(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	programs := &repricedPrograms{ProgramRepository: repos.ProgramRepository}
	repos.ProgramRepository = programs
	nop := zerolog.Nop()
	svc := NewServices(repos, Options{Logger: &nop, Now: func() time.Time { return testNow }})

	early := enrollLogistics(t, svc)
	programs.reprice(money.FromMajor(3500000))

	view, err := svc.StudentService.GetStudent(ctx, early.Student.ID)
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(3000000), view.Student.AssessedTuition)
	assert.Equal(t, money.FromMajor(3000000), view.Balance.Headline())

	late, err := svc.StudentService.Enroll(ctx, EnrollInput{FirstName: "Late", LastName: "Comer", Contact: "0701", ProgramID: early.Student.ProgramID})
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(3500000), late.Student.AssessedTuition)
}

func TestStatusBuckets(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	student := enrollLogistics(t, svc)
	id := student.Student.ID

	// Scenario D
	_, err := svc.StudentService.SetStatus(ctx, id, "travelled")
	require.NoError(t, err)

	travelled, err := svc.StudentService.ListStudents(ctx, "", "travelled")
	require.NoError(t, err)
	require.Len(t, travelled, 1)
	assert.Equal(t, id, travelled[0].Student.ID)

	notCompleted, err := svc.StudentService.ListStudents(ctx, "", "not_completed")
	require.NoError(t, err)
	assert.Empty(t, notCompleted)

	t.Run("status overwrite does not touch the balance", func(t *testing.T) {
		view, err := svc.StudentService.SetStatus(ctx, id, "completed")
		require.NoError(t, err)
		assert.Equal(t, money.FromMajor(3000000), view.Balance.Headline())
	})

	t.Run("any status can replace any other", func(t *testing.T) {
		view, err := svc.StudentService.SetStatus(ctx, id, "not completed")
		require.NoError(t, err)
		assert.Equal(t, models.StatusNotCompleted, view.Student.Status)
	})

	t.Run("bad status", func(t *testing.T) {
		_, err := svc.StudentService.SetStatus(ctx, id, "expelled")
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "status", apperrors.FieldOf(err))
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.StudentService.SetStatus(ctx, 999, "completed")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("loan bucket", func(t *testing.T) {
		_, err := svc.StudentService.SetLoanFlag(ctx, id, true)
		require.NoError(t, err)
		onLoan, err := svc.StudentService.ListStudents(ctx, "", "on_loan")
		require.NoError(t, err)
		assert.Len(t, onLoan, 1)

		_, err = svc.StudentService.SetLoanFlag(ctx, 999, true)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("unknown bucket", func(t *testing.T) {
		_, err := svc.StudentService.ListStudents(ctx, "", "graduated")
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "bucket", apperrors.FieldOf(err))
	})
}

func TestListStudentsSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	first := enrollLogistics(t, svc)
	_, err := svc.StudentService.Enroll(ctx, EnrollInput{
		FirstName: "Brian",
		LastName:  "Ssempala",
		Contact:   "brian@mail.ug",
		ProgramID: first.Student.ProgramID,
	})
	require.NoError(t, err)
	_, err = svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(first.Student.ID, money.FromMajor(1200000), "2024-01-10", "cash"))
	require.NoError(t, err)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Annet", "Brian"}},
		{"annet nak", []string{"Annet"}},
		{"NAKATO", []string{"Annet"}},
		{"MAIL.UG", []string{"Brian"}},
		{"772", []string{"Annet"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			views, err := svc.StudentService.ListStudents(ctx, tt.query, "")
			require.NoError(t, err)
			got := []string{}
			for _, v := range views {
				got = append(got, v.Student.FirstName)
				assert.Equal(t, "Diploma in Logistics", v.ProgramName)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	t.Run("list carries live balances", func(t *testing.T) {
		views, err := svc.StudentService.ListStudents(ctx, "annet", "")
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, money.FromMajor(1800000), views[0].Balance.Headline())
	})
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	a := enrollLogistics(t, svc)
	b, err := svc.StudentService.Enroll(ctx, EnrollInput{FirstName: "B", LastName: "B", Contact: "b", ProgramID: a.Student.ProgramID, IsOnLoan: true, Status: "completed"})
	require.NoError(t, err)
	_, err = svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(b.Student.ID, money.FromMajor(3100000), "2024-01-10", "cash"))
	require.NoError(t, err)

	sum, err := svc.StudentService.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Counts[models.BucketNotCompleted])
	assert.Equal(t, 1, sum.Counts[models.BucketCompleted])
	assert.Equal(t, 0, sum.Counts[models.BucketTravelled])
	assert.Equal(t, 1, sum.Counts[models.BucketOnLoan])
	assert.Equal(t, money.FromMajor(3000000), sum.TotalOutstanding)
	assert.Equal(t, money.FromMajor(100000), sum.TotalCredit)
}

func TestStatementFor(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	id := enrollLogistics(t, svc).Student.ID
	_, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(id, money.FromMajor(1200000), "2024-01-10", "cash"))
	require.NoError(t, err)

	st, err := svc.PaymentService.StatementFor(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Diploma in Logistics", st.ProgramName)
	assert.Equal(t, testNow, st.GeneratedAt)
	assert.Equal(t, money.FromMajor(1200000), st.History.TotalPaid)
	assert.Equal(t, money.FromMajor(1800000), st.Balance.Headline())

	_, err = svc.PaymentService.StatementFor(ctx, 404)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCatalogs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	t.Run("program validation", func(t *testing.T) {
		_, err := svc.ProgramService.CreateProgram(ctx, "  ", money.FromMajor(1))
		assert.Equal(t, "program_name", apperrors.FieldOf(err))
		_, err = svc.ProgramService.CreateProgram(ctx, "Diploma", 0)
		assert.Equal(t, "tuition_fee", apperrors.FieldOf(err))
	})

	t.Run("fee validation", func(t *testing.T) {
		_, err := svc.FeeService.CreateFee(ctx, "", money.FromMajor(1))
		assert.Equal(t, "fee_name", apperrors.FieldOf(err))
		_, err = svc.FeeService.CreateFee(ctx, "Uniform", mustAmount(t, "-1"))
		assert.Equal(t, "fee_amount", apperrors.FieldOf(err))
	})

	t.Run("fees keep insertion order", func(t *testing.T) {
		for _, name := range []string{"Uniform", "Application", "Medical"} {
			_, err := svc.FeeService.CreateFee(ctx, name, money.FromMajor(1000))
			require.NoError(t, err)
		}
		fees, err := svc.FeeService.ListFees(ctx)
		require.NoError(t, err)
		require.Len(t, fees, 3)
		assert.Equal(t, "Uniform", fees[0].Name)
		assert.Equal(t, "Medical", fees[2].Name)
	})

	t.Run("get by id", func(t *testing.T) {
		p, err := svc.ProgramService.CreateProgram(ctx, "Diploma", money.FromMajor(10))
		require.NoError(t, err)
		got, err := svc.ProgramService.GetProgramByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)

		_, err = svc.ProgramService.GetProgramByID(ctx, 999)
		assert.True(t, apperrors.IsNotFound(err))
		_, err = svc.FeeService.GetFeeByID(ctx, 999)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestExpenses(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	for _, in := range []RecordExpenseInput{
		{PersonName: "Driver", Amount: money.FromMajor(20000), Date: "2024-01-03", Description: "Fuel"},
		{PersonName: "Printer", Amount: money.FromMajor(45000), Date: "2024-01-31"},
		{PersonName: "Landlord", Amount: money.FromMajor(800000), Date: "2024-02-01", Description: "February rent"},
	} {
		_, err := svc.ExpenseService.RecordExpense(ctx, in)
		require.NoError(t, err)
	}

	t.Run("january only", func(t *testing.T) {
		// Scenario E
		report, err := svc.ExpenseService.Query(ctx, "2024-01-01", "2024-01-31")
		require.NoError(t, err)
		assert.Len(t, report.Expenses, 2)
		assert.Equal(t, money.FromMajor(65000), report.Total)
	})

	t.Run("open range covers the whole log", func(t *testing.T) {
		report, err := svc.ExpenseService.Query(ctx, "", "")
		require.NoError(t, err)
		assert.Len(t, report.Expenses, 3)
		assert.Equal(t, money.FromMajor(865000), report.Total)
		assert.Equal(t, "Expense Report as of 2024-03-01", report.Title)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := svc.ExpenseService.Query(ctx, "2024-02-01", "2024-01-01")
		assert.Equal(t, "end_date", apperrors.FieldOf(err))
	})

	t.Run("bad bound", func(t *testing.T) {
		_, err := svc.ExpenseService.Query(ctx, "yesterday", "")
		assert.Equal(t, "start_date", apperrors.FieldOf(err))
	})

	t.Run("record validation", func(t *testing.T) {
		_, err := svc.ExpenseService.RecordExpense(ctx, RecordExpenseInput{Amount: 1, Date: "2024-01-01"})
		assert.Equal(t, "person_name", apperrors.FieldOf(err))
		_, err = svc.ExpenseService.RecordExpense(ctx, RecordExpenseInput{PersonName: "X", Amount: 0, Date: "2024-01-01"})
		assert.Equal(t, "amount", apperrors.FieldOf(err))
		_, err = svc.ExpenseService.RecordExpense(ctx, RecordExpenseInput{PersonName: "X", Amount: 1, Date: "Jan 1"})
		assert.Equal(t, "expense_date", apperrors.FieldOf(err))
	})
}

func TestPaidTotalCannotOverflow(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestServices(t)
	id := enrollLogistics(t, svc).Student.ID

	// a legacy entry far above the per-payment cap, written straight to the log
	require.NoError(t, repos.PaymentRepository.Append(ctx, &models.Payment{
		StudentID: id,
		Target:    models.TuitionTarget,
		Amount:    money.Amount(math.MaxInt64 - money.MaxAmount/2),
		Date:      testNow,
		Method:    models.MethodCash,
	}))

	_, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(id, money.MaxAmount, "2024-01-10", "cash"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "amount_paid", apperrors.FieldOf(err))

	hist, err := svc.PaymentService.HistoryFor(ctx, id)
	require.NoError(t, err)
	require.Len(t, hist.Groups, 1)
	assert.Len(t, hist.Groups[0].Payments, 1, "rejected payment was not appended")

	t.Run("maximal payments accumulate exactly", func(t *testing.T) {
		svc, _ := newTestServices(t)
		id := enrollLogistics(t, svc).Student.ID
		for i := 0; i < 3; i++ {
			_, err := svc.PaymentService.RecordPayment(ctx, auth.Session{}, tuitionPayment(id, money.MaxAmount, "2024-01-10", "cash"))
			require.NoError(t, err)
		}
		bal, err := svc.PaymentService.BalanceOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3*money.MaxAmount, bal.Tuition.Paid)
		assert.Equal(t, money.FromMajor(3000000)-3*money.MaxAmount, bal.Headline())
	})
}
