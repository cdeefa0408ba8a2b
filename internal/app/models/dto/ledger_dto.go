package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eduserv/ledger/internal/app/ledger"
	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/pkg/helpers"
	"github.com/eduserv/ledger/internal/pkg/money"
)

// FlexibleID accepts an id as a JSON number, a quoted number, or "" (zero).
// HTML select elements submit ids as strings.
type FlexibleID int64

// UnmarshalJSON implements json.Unmarshaler
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*id = 0
			return nil
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", string(data))
	}
	*id = FlexibleID(v)
	return nil
}

// CreateProgramRequest is the program form
type CreateProgramRequest struct {
	ProgramName string       `json:"program_name" binding:"required,max=100"`
	TuitionFee  money.Amount `json:"tuition_fee"`
}

// CreateFeeRequest is the fee form
type CreateFeeRequest struct {
	FeeName   string       `json:"fee_name" binding:"required,max=100"`
	FeeAmount money.Amount `json:"fee_amount"`
}

// EnrollStudentRequest is the enrollment form
type EnrollStudentRequest struct {
	FirstName string     `json:"firstname" binding:"required,max=100"`
	LastName  string     `json:"lastname" binding:"required,max=100"`
	Contacts  string     `json:"contacts" binding:"required,max=255"`
	ProgramID FlexibleID `json:"program_id"`
	Status    string     `json:"status"`
	IsOnLoan  bool       `json:"isonloan"`
}

// UpdateStatusRequest sets a student's status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateLoanRequest sets a student's loan flag
type UpdateLoanRequest struct {
	IsOnLoan *bool `json:"isonloan" binding:"required"`
}

// RecordPaymentRequest is the payment form. The tuition form posts
// amount_paid and the fee form posts payment_amount; either is accepted.
type RecordPaymentRequest struct {
	FeeID         FlexibleID    `json:"fee_id"`
	AmountPaid    *money.Amount `json:"amount_paid"`
	PaymentAmount *money.Amount `json:"payment_amount"`
	PaymentDate   string        `json:"payment_date" binding:"required"`
	PaymentMethod string        `json:"payment_method" binding:"required"`
}

// Amount returns whichever amount field was sent, amount_paid first.
func (r RecordPaymentRequest) Amount() money.Amount {
	switch {
	case r.AmountPaid != nil:
		return *r.AmountPaid
	case r.PaymentAmount != nil:
		return *r.PaymentAmount
	}
	return 0
}

// RecordExpenseRequest is the expense form
type RecordExpenseRequest struct {
	PersonName  string       `json:"person_name" binding:"required,max=100"`
	Amount      money.Amount `json:"amount"`
	ExpenseDate string       `json:"expense_date" binding:"required"`
	Description string       `json:"description" binding:"max=1000"`
}

// ProgramResponse is one catalog program
type ProgramResponse struct {
	ID          int64        `json:"id"`
	ProgramName string       `json:"program_name"`
	TuitionFee  money.Amount `json:"tuition_fee"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewProgramResponse maps a program
func NewProgramResponse(p *models.Program) ProgramResponse {
	return ProgramResponse{ID: p.ID, ProgramName: p.Name, TuitionFee: p.TuitionAmount, CreatedAt: p.CreatedAt}
}

// FeeResponse is one catalog fee
type FeeResponse struct {
	FeeID     int64        `json:"fee_id"`
	FeeName   string       `json:"fee_name"`
	FeeAmount money.Amount `json:"fee_amount"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewFeeResponse maps a fee
func NewFeeResponse(f *models.Fee) FeeResponse {
	return FeeResponse{FeeID: f.ID, FeeName: f.Name, FeeAmount: f.Amount, CreatedAt: f.CreatedAt}
}

// StudentResponse is a registry row as list views display it. Balance is the
// tuition-only headline.
type StudentResponse struct {
	ID          int64                `json:"id"`
	FirstName   string               `json:"firstname"`
	LastName    string               `json:"lastname"`
	Contacts    string               `json:"contacts"`
	ProgramID   int64                `json:"program_id"`
	ProgramName string               `json:"program_name"`
	TuitionFee  money.Amount         `json:"tuition_fee"`
	Balance     money.Amount         `json:"balance"`
	Status      models.StudentStatus `json:"status"`
	IsOnLoan    bool                 `json:"isonloan"`
	EnrolledAt  time.Time            `json:"enrolled_at"`
}

// NewStudentResponse maps a student with its program name and balance
func NewStudentResponse(s *models.Student, programName string, bal ledger.Balance) StudentResponse {
	return StudentResponse{
		ID:          s.ID,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Contacts:    s.Contact,
		ProgramID:   s.ProgramID,
		ProgramName: programName,
		TuitionFee:  s.AssessedTuition,
		Balance:     bal.Headline(),
		Status:      s.Status,
		IsOnLoan:    s.IsOnLoan,
		EnrolledAt:  s.EnrolledAt,
	}
}

// ComponentResponse is one charge in a balance breakdown. FeeID 0 is tuition.
type ComponentResponse struct {
	FeeID      int64        `json:"fee_id"`
	FeeName    string       `json:"fee_name"`
	FeeAmount  money.Amount `json:"fee_amount"`
	AmountPaid money.Amount `json:"amount_paid"`
	Balance    money.Amount `json:"balance"`
}

func newComponentResponse(c ledger.Component) ComponentResponse {
	return ComponentResponse{
		FeeID:      c.FeeID,
		FeeName:    c.Label,
		FeeAmount:  c.Charged,
		AmountPaid: c.Paid,
		Balance:    c.Outstanding,
	}
}

// BalanceResponse is a derived balance. Balance is tuition only; Outstanding
// adds every charged fee.
type BalanceResponse struct {
	StudentID    int64               `json:"student_id"`
	Balance      money.Amount        `json:"balance"`
	Tuition      ComponentResponse   `json:"tuition"`
	Fees         []ComponentResponse `json:"fees"`
	TotalCharged money.Amount        `json:"total_charged"`
	TotalPaid    money.Amount        `json:"total_paid"`
	Outstanding  money.Amount        `json:"outstanding"`
}

// NewBalanceResponse maps a derived balance
func NewBalanceResponse(b ledger.Balance) BalanceResponse {
	fees := make([]ComponentResponse, 0, len(b.Fees))
	for _, c := range b.Fees {
		fees = append(fees, newComponentResponse(c))
	}
	return BalanceResponse{
		StudentID:    b.StudentID,
		Balance:      b.Headline(),
		Tuition:      newComponentResponse(b.Tuition),
		Fees:         fees,
		TotalCharged: b.TotalCharged,
		TotalPaid:    b.TotalPaid,
		Outstanding:  b.Outstanding,
	}
}

// PaymentResponse is one logged payment. The amount is emitted under both
// names existing consumers read.
type PaymentResponse struct {
	ID            int64                `json:"id"`
	StudentID     int64                `json:"student_id"`
	FeeID         int64                `json:"fee_id"`
	FeeName       string               `json:"fee_name,omitempty"`
	AmountPaid    money.Amount         `json:"amount_paid"`
	PaymentAmount money.Amount         `json:"payment_amount"`
	PaymentDate   string               `json:"payment_date"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	RecordedBy    string               `json:"recorded_by"`
	RecordedAt    time.Time            `json:"recorded_at"`
}

// NewPaymentResponse maps a payment; feeName may be empty.
func NewPaymentResponse(p *models.Payment, feeName string) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		StudentID:     p.StudentID,
		FeeID:         p.Target.FeeID,
		FeeName:       feeName,
		AmountPaid:    p.Amount,
		PaymentAmount: p.Amount,
		PaymentDate:   helpers.FormatDate(p.Date),
		PaymentMethod: p.Method,
		RecordedBy:    p.RecordedBy,
		RecordedAt:    p.RecordedAt,
	}
}

// PaymentGroupResponse is every payment against one charge
type PaymentGroupResponse struct {
	FeeID    int64             `json:"fee_id"`
	FeeName  string            `json:"fee_name"`
	Payments []PaymentResponse `json:"payments"`
	Subtotal money.Amount      `json:"subtotal"`
}

// HistoryResponse is a student's payments grouped by charge
type HistoryResponse struct {
	StudentID int64                  `json:"student_id"`
	Groups    []PaymentGroupResponse `json:"groups"`
	TotalPaid money.Amount           `json:"total_paid"`
}

// NewHistoryResponse maps a grouped history
func NewHistoryResponse(h ledger.History) HistoryResponse {
	groups := make([]PaymentGroupResponse, 0, len(h.Groups))
	for _, g := range h.Groups {
		rows := make([]PaymentResponse, 0, len(g.Payments))
		for _, p := range g.Payments {
			rows = append(rows, NewPaymentResponse(p, g.Label))
		}
		groups = append(groups, PaymentGroupResponse{FeeID: g.FeeID, FeeName: g.Label, Payments: rows, Subtotal: g.Subtotal})
	}
	return HistoryResponse{StudentID: h.StudentID, Groups: groups, TotalPaid: h.TotalPaid}
}

// StatementResponse is the per-student statement handed to the PDF exporter
type StatementResponse struct {
	Student     StudentResponse        `json:"student"`
	Balance     BalanceResponse        `json:"balance"`
	Sections    []PaymentGroupResponse `json:"sections"`
	TotalPaid   money.Amount           `json:"total_paid"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// NewStatementResponse maps a statement
func NewStatementResponse(st ledger.Statement) StatementResponse {
	hist := NewHistoryResponse(st.History)
	return StatementResponse{
		Student:     NewStudentResponse(st.Student, st.ProgramName, st.Balance),
		Balance:     NewBalanceResponse(st.Balance),
		Sections:    hist.Groups,
		TotalPaid:   hist.TotalPaid,
		GeneratedAt: st.GeneratedAt,
	}
}

// ExpenseResponse is one logged expense
type ExpenseResponse struct {
	ID          int64        `json:"id"`
	PersonName  string       `json:"person_name"`
	Amount      money.Amount `json:"amount"`
	ExpenseDate string       `json:"expense_date"`
	Description string       `json:"description"`
	RecordedAt  time.Time    `json:"recorded_at"`
}

// NewExpenseResponse maps an expense
func NewExpenseResponse(e *models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		PersonName:  e.PersonName,
		Amount:      e.Amount,
		ExpenseDate: helpers.FormatDate(e.Date),
		Description: e.Description,
		RecordedAt:  e.RecordedAt,
	}
}

// ExpenseReportResponse is a date-range query with its total
type ExpenseReportResponse struct {
	Title     string            `json:"title"`
	StartDate *string           `json:"start_date"`
	EndDate   *string           `json:"end_date"`
	Expenses  []ExpenseResponse `json:"expenses"`
	Total     money.Amount      `json:"total"`
}

// NewExpenseReportResponse maps an expense report
func NewExpenseReportResponse(r ledger.ExpenseReport) ExpenseReportResponse {
	rows := make([]ExpenseResponse, 0, len(r.Expenses))
	for _, e := range r.Expenses {
		rows = append(rows, NewExpenseResponse(e))
	}
	return ExpenseReportResponse{
		Title:     r.Title,
		StartDate: optionalDate(r.From),
		EndDate:   optionalDate(r.To),
		Expenses:  rows,
		Total:     r.Total,
	}
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := helpers.FormatDate(*t)
	return &s
}

// SummaryResponse counts the registry per bucket
type SummaryResponse struct {
	Total            int          `json:"total"`
	NotCompleted     int          `json:"not_completed"`
	Completed        int          `json:"completed"`
	Travelled        int          `json:"travelled"`
	OnLoan           int          `json:"on_loan"`
	TotalOutstanding money.Amount `json:"total_outstanding"`
	TotalCredit      money.Amount `json:"total_credit"`
}

// NewSummaryResponse maps bucket counts
func NewSummaryResponse(total int, counts map[models.Bucket]int, outstanding, credit money.Amount) SummaryResponse {
	return SummaryResponse{
		Total:            total,
		NotCompleted:     counts[models.BucketNotCompleted],
		Completed:        counts[models.BucketCompleted],
		Travelled:        counts[models.BucketTravelled],
		OnLoan:           counts[models.BucketOnLoan],
		TotalOutstanding: outstanding,
		TotalCredit:      credit,
	}
}
