package models

import (
	"time"

	"github.com/eduserv/ledger/internal/pkg/money"
)

// Fee is a named non-tuition charge, selected per payment.
type Fee struct {
	ID        int64        `json:"fee_id"`
	Name      string       `json:"fee_name"`
	Amount    money.Amount `json:"fee_amount"`
	CreatedAt time.Time    `json:"created_at"`
}
