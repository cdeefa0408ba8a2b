package models

import (
	"time"

	"github.com/eduserv/ledger/internal/pkg/money"
)

// Program is a catalog entry. Its tuition never changes after creation.
type Program struct {
	ID            int64        `json:"id"`
	Name          string       `json:"program_name"`
	TuitionAmount money.Amount `json:"tuition_fee"`
	CreatedAt     time.Time    `json:"created_at"`
}
