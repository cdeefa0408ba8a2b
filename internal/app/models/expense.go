package models

import (
	"time"

	"github.com/eduserv/ledger/internal/pkg/money"
)

// Expense is an institutional expense. It has no link to students.
type Expense struct {
	ID          int64        `json:"id"`
	PersonName  string       `json:"person_name"`
	Amount      money.Amount `json:"amount"`
	Date        time.Time    `json:"expense_date"`
	Description string       `json:"description"`
	RecordedAt  time.Time    `json:"recorded_at"`
}
