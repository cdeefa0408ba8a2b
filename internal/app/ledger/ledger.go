// Package ledger derives balances and histories from the payment log.
//
// Everything here is a pure function of its inputs: the student's assessed
// tuition, the fee catalog and the full list of that student's payments. No
// running total is stored anywhere, so deriving twice from the same log always
// yields the same result.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/pkg/money"
)

var (
	// ErrUnknownFee means a logged payment references a fee missing from the catalog snapshot.
	ErrUnknownFee = errors.New("payment references unknown fee")
	// ErrForeignPayment means a payment for another student was passed in.
	ErrForeignPayment = errors.New("payment belongs to another student")
)

// FeeLookup resolves catalog fees by id.
type FeeLookup map[int64]*models.Fee

// NewFeeLookup indexes a fee list.
func NewFeeLookup(fees []*models.Fee) FeeLookup {
	lookup := make(FeeLookup, len(fees))
	for _, f := range fees {
		lookup[f.ID] = f
	}
	return lookup
}

// Component is one charge and what has been paid against it.
type Component struct {
	FeeID       int64
	Label       string
	Charged     money.Amount
	Paid        money.Amount
	Outstanding money.Amount
}

// Balance is the derived position of one student.
//
// Tuition.Outstanding is the headline balance shown in list views. Fee
// components are reported separately and are not netted into it; Outstanding
// is the all-charges figure (tuition plus charged fees minus all payments).
type Balance struct {
	StudentID    int64
	Tuition      Component
	Fees         []Component
	TotalCharged money.Amount
	TotalPaid    money.Amount
	Outstanding  money.Amount
}

// Headline returns the tuition-only balance displayed in registry lists.
func (b Balance) Headline() money.Amount {
	return b.Tuition.Outstanding
}

// Derive replays payments against the student's charges. A fee counts as
// charged once at least one payment has been recorded against it. Overpayment
// yields a negative outstanding amount; nothing is clamped.
func Derive(student *models.Student, fees FeeLookup, payments []*models.Payment) (Balance, error) {
	ordered, err := ownPayments(student.ID, payments)
	if err != nil {
		return Balance{}, err
	}

	bal := Balance{
		StudentID: student.ID,
		Tuition: Component{
			Label:   models.TuitionLabel,
			Charged: student.AssessedTuition,
		},
		Fees: []Component{},
	}

	feeIdx := map[int64]int{}
	for _, p := range ordered {
		if p.Target.IsTuition() {
			if bal.Tuition.Paid, err = money.Add(bal.Tuition.Paid, p.Amount); err != nil {
				return Balance{}, fmt.Errorf("tuition paid for student %d: %w", student.ID, err)
			}
			continue
		}
		idx, seen := feeIdx[p.Target.FeeID]
		if !seen {
			fee, ok := fees[p.Target.FeeID]
			if !ok {
				return Balance{}, fmt.Errorf("%w: payment %d fee %d", ErrUnknownFee, p.ID, p.Target.FeeID)
			}
			bal.Fees = append(bal.Fees, Component{FeeID: fee.ID, Label: fee.Name, Charged: fee.Amount})
			idx = len(bal.Fees) - 1
			feeIdx[fee.ID] = idx
		}
		if bal.Fees[idx].Paid, err = money.Add(bal.Fees[idx].Paid, p.Amount); err != nil {
			return Balance{}, fmt.Errorf("fee %d paid for student %d: %w", p.Target.FeeID, student.ID, err)
		}
	}

	sort.Slice(bal.Fees, func(i, j int) bool { return bal.Fees[i].FeeID < bal.Fees[j].FeeID })

	if bal.Tuition.Outstanding, err = money.Sub(bal.Tuition.Charged, bal.Tuition.Paid); err != nil {
		return Balance{}, fmt.Errorf("tuition outstanding for student %d: %w", student.ID, err)
	}
	bal.TotalCharged = bal.Tuition.Charged
	bal.TotalPaid = bal.Tuition.Paid
	for i := range bal.Fees {
		c := &bal.Fees[i]
		if c.Outstanding, err = money.Sub(c.Charged, c.Paid); err != nil {
			return Balance{}, fmt.Errorf("fee %d outstanding for student %d: %w", c.FeeID, student.ID, err)
		}
		if bal.TotalCharged, err = money.Add(bal.TotalCharged, c.Charged); err != nil {
			return Balance{}, fmt.Errorf("total charged for student %d: %w", student.ID, err)
		}
		if bal.TotalPaid, err = money.Add(bal.TotalPaid, c.Paid); err != nil {
			return Balance{}, fmt.Errorf("total paid for student %d: %w", student.ID, err)
		}
	}
	if bal.Outstanding, err = money.Sub(bal.TotalCharged, bal.TotalPaid); err != nil {
		return Balance{}, fmt.Errorf("outstanding for student %d: %w", student.ID, err)
	}
	return bal, nil
}

// Group is every payment against one charge, with its sub-total.
type Group struct {
	FeeID    int64
	Label    string
	Payments []*models.Payment
	Subtotal money.Amount
}

// History is a student's payments grouped by charge.
type History struct {
	StudentID int64
	Groups    []Group
	TotalPaid money.Amount
}

// GroupHistory groups payments by target. Tuition comes first, then fees in
// catalog order; inside a group payments are ordered by date, then id.
func GroupHistory(studentID int64, fees FeeLookup, payments []*models.Payment) (History, error) {
	ordered, err := ownPayments(studentID, payments)
	if err != nil {
		return History{}, err
	}

	byFee := map[int64]*Group{}
	for _, p := range ordered {
		g, ok := byFee[p.Target.FeeID]
		if !ok {
			label := models.TuitionLabel
			if !p.Target.IsTuition() {
				fee, found := fees[p.Target.FeeID]
				if !found {
					return History{}, fmt.Errorf("%w: payment %d fee %d", ErrUnknownFee, p.ID, p.Target.FeeID)
				}
				label = fee.Name
			}
			g = &Group{FeeID: p.Target.FeeID, Label: label}
			byFee[p.Target.FeeID] = g
		}
		g.Payments = append(g.Payments, p)
		if g.Subtotal, err = money.Add(g.Subtotal, p.Amount); err != nil {
			return History{}, fmt.Errorf("subtotal for %s: %w", g.Label, err)
		}
	}

	h := History{StudentID: studentID, Groups: make([]Group, 0, len(byFee))}
	for _, g := range byFee {
		sort.SliceStable(g.Payments, func(i, j int) bool {
			a, b := g.Payments[i], g.Payments[j]
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.ID < b.ID
		})
		h.Groups = append(h.Groups, *g)
		if h.TotalPaid, err = money.Add(h.TotalPaid, g.Subtotal); err != nil {
			return History{}, fmt.Errorf("total paid for student %d: %w", studentID, err)
		}
	}
	// tuition has FeeID 0, so it sorts first
	sort.Slice(h.Groups, func(i, j int) bool { return h.Groups[i].FeeID < h.Groups[j].FeeID })
	return h, nil
}

// ownPayments copies and orders the log by id, rejecting entries for other students.
func ownPayments(studentID int64, payments []*models.Payment) ([]*models.Payment, error) {
	ordered := make([]*models.Payment, 0, len(payments))
	for _, p := range payments {
		if p.StudentID != studentID {
			return nil, fmt.Errorf("%w: payment %d is for student %d, not %d", ErrForeignPayment, p.ID, p.StudentID, studentID)
		}
		ordered = append(ordered, p)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return ordered, nil
}
