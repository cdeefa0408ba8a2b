// Package memory implements the repository interfaces in process memory.
//
// It backs the "memory" database driver and the service tests. Every read
// returns copies, so callers can never mutate stored rows, and the payment and
// expense logs expose no update or delete path at all.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/app/repositories"
	"github.com/eduserv/ledger/internal/pkg/helpers"
)

var (
	_ repositories.ProgramRepository = (*ProgramRepository)(nil)
	_ repositories.FeeRepository     = (*FeeRepository)(nil)
	_ repositories.StudentRepository = (*StudentRepository)(nil)
	_ repositories.PaymentRepository = (*PaymentRepository)(nil)
	_ repositories.ExpenseRepository = (*ExpenseRepository)(nil)
)

// Store holds all tables behind one lock so a payment append and the student
// lookup that precedes it see the same state.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	programs []*models.Program
	fees     []*models.Fee
	students map[int64]*models.Student
	payments []*models.Payment
	expenses []*models.Expense

	nextStudentID int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		students: map[int64]*models.Student{},
	}
}

// Repositories wires every repository interface to this store.
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		ProgramRepository: &ProgramRepository{s},
		FeeRepository:     &FeeRepository{s},
		StudentRepository: &StudentRepository{s},
		PaymentRepository: &PaymentRepository{s},
		ExpenseRepository: &ExpenseRepository{s},
	}
}

// ProgramRepository is the in-memory program catalog.
type ProgramRepository struct{ s *Store }

func (r *ProgramRepository) Create(_ context.Context, program *models.Program) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	program.ID = int64(len(r.s.programs) + 1)
	program.CreatedAt = r.s.now()
	stored := *program
	r.s.programs = append(r.s.programs, &stored)
	return nil
}

func (r *ProgramRepository) GetByID(_ context.Context, id int64) (*models.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if id <= 0 || id > int64(len(r.s.programs)) {
		return nil, repositories.ErrNotFound
	}
	p := *r.s.programs[id-1]
	return &p, nil
}

func (r *ProgramRepository) List(_ context.Context) ([]*models.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Program, 0, len(r.s.programs))
	for _, p := range r.s.programs {
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// FeeRepository is the in-memory fee catalog.
type FeeRepository struct{ s *Store }

func (r *FeeRepository) Create(_ context.Context, fee *models.Fee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	fee.ID = int64(len(r.s.fees) + 1)
	fee.CreatedAt = r.s.now()
	stored := *fee
	r.s.fees = append(r.s.fees, &stored)
	return nil
}

func (r *FeeRepository) GetByID(_ context.Context, id int64) (*models.Fee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if id <= 0 || id > int64(len(r.s.fees)) {
		return nil, repositories.ErrNotFound
	}
	f := *r.s.fees[id-1]
	return &f, nil
}

func (r *FeeRepository) List(_ context.Context) ([]*models.Fee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Fee, 0, len(r.s.fees))
	for _, f := range r.s.fees {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

// StudentRepository is the in-memory registry.
type StudentRepository struct{ s *Store }

func (r *StudentRepository) Create(_ context.Context, student *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if student.ProgramID <= 0 || student.ProgramID > int64(len(r.s.programs)) {
		return fmt.Errorf("program %d: %w", student.ProgramID, repositories.ErrNotFound)
	}
	r.s.nextStudentID++
	student.ID = r.s.nextStudentID
	student.EnrolledAt = r.s.now()
	stored := *student
	r.s.students[student.ID] = &stored
	return nil
}

func (r *StudentRepository) GetByID(_ context.Context, id int64) (*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.students[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (r *StudentRepository) UpdateStatus(_ context.Context, id int64, status models.StudentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.students[id]
	if !ok {
		return repositories.ErrNotFound
	}
	st.Status = status
	return nil
}

func (r *StudentRepository) UpdateLoanFlag(_ context.Context, id int64, onLoan bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.students[id]
	if !ok {
		return repositories.ErrNotFound
	}
	st.IsOnLoan = onLoan
	return nil
}

func (r *StudentRepository) List(_ context.Context, bucket models.Bucket) ([]*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Student, 0, len(r.s.students))
	for _, st := range r.s.students {
		if !bucket.Matches(st) {
			continue
		}
		cp := *st
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID < b.ID
	})
	return out, nil
}

// PaymentRepository is the in-memory payment log.
type PaymentRepository struct{ s *Store }

func (r *PaymentRepository) Append(_ context.Context, payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.students[payment.StudentID]; !ok {
		return fmt.Errorf("student %d: %w", payment.StudentID, repositories.ErrNotFound)
	}
	if !payment.Target.IsTuition() && (payment.Target.FeeID < 0 || payment.Target.FeeID > int64(len(r.s.fees))) {
		return fmt.Errorf("fee %d: %w", payment.Target.FeeID, repositories.ErrNotFound)
	}
	payment.ID = int64(len(r.s.payments) + 1)
	payment.RecordedAt = r.s.now()
	stored := *payment
	r.s.payments = append(r.s.payments, &stored)
	return nil
}

func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Payment, error) {
	byStudent, err := r.ListByStudents(ctx, []int64{studentID})
	if err != nil {
		return nil, err
	}
	if list, ok := byStudent[studentID]; ok {
		return list, nil
	}
	return []*models.Payment{}, nil
}

func (r *PaymentRepository) ListByStudents(_ context.Context, studentIDs []int64) (map[int64][]*models.Payment, error) {
	want := make(map[int64]bool, len(studentIDs))
	for _, id := range studentIDs {
		want[id] = true
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[int64][]*models.Payment, len(studentIDs))
	for _, p := range r.s.payments {
		if !want[p.StudentID] {
			continue
		}
		cp := *p
		out[p.StudentID] = append(out[p.StudentID], &cp)
	}
	return out, nil
}

// ExpenseRepository is the in-memory expense log.
type ExpenseRepository struct{ s *Store }

func (r *ExpenseRepository) Append(_ context.Context, expense *models.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	expense.ID = int64(len(r.s.expenses) + 1)
	expense.RecordedAt = r.s.now()
	stored := *expense
	r.s.expenses = append(r.s.expenses, &stored)
	return nil
}

func (r *ExpenseRepository) ListByDateRange(_ context.Context, from, to *time.Time) ([]*models.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*models.Expense{}
	for _, e := range r.s.expenses {
		if !helpers.InDateRange(e.Date, from, to) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
