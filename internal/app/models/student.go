package models

import (
	"time"

	"github.com/eduserv/ledger/internal/pkg/money"
)

// Student is a registry record. AssessedTuition is copied from the program at
// enrollment and is never re-read from the catalog afterwards.
type Student struct {
	ID              int64         `json:"id"`
	FirstName       string        `json:"firstname"`
	LastName        string        `json:"lastname"`
	Contact         string        `json:"contacts"`
	Status          StudentStatus `json:"status"`
	IsOnLoan        bool          `json:"isonloan"`
	ProgramID       int64         `json:"program_id"`
	AssessedTuition money.Amount  `json:"tuition_fee"`
	EnrolledAt      time.Time     `json:"enrolled_at"`
}

// FullName joins first and last name the way list views display it.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
