package models

import (
	"time"

	"github.com/eduserv/ledger/internal/pkg/money"
)

// TuitionLabel is the group name used for tuition payments in histories.
const TuitionLabel = "Tuition"

// Target is the charge a payment settles: tuition, or one catalog fee.
type Target struct {
	FeeID int64
}

// TuitionTarget is the tuition charge.
var TuitionTarget = Target{}

// FeeTarget targets the catalog fee with the given id.
func FeeTarget(feeID int64) Target { return Target{FeeID: feeID} }

// IsTuition reports whether the target is the tuition charge.
func (t Target) IsTuition() bool { return t.FeeID == 0 }

// Payment is an immutable log entry.
type Payment struct {
	ID         int64         `json:"id"`
	StudentID  int64         `json:"student_id"`
	Target     Target        `json:"-"`
	Amount     money.Amount  `json:"payment_amount"`
	Date       time.Time     `json:"payment_date"`
	Method     PaymentMethod `json:"payment_method"`
	RecordedAt time.Time     `json:"recorded_at"`
	RecordedBy string        `json:"recorded_by"`
}
