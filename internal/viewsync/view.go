package viewsync

import (
	"fmt"
	"time"
)

// View is one of the closed set of polled screens.
type View int

// Polled views
const (
	ViewRegistry View = iota + 1
	ViewFinance
	ViewNotCompleted
	ViewCompleted
	ViewTravelled
	ViewOnLoan
	ViewExpenses
	ViewPrograms
	ViewFees
)

var viewNames = map[View]string{
	ViewRegistry:     "registry",
	ViewFinance:      "finance",
	ViewNotCompleted: "not_completed",
	ViewCompleted:    "completed",
	ViewTravelled:    "travelled",
	ViewOnLoan:       "on_loan",
	ViewExpenses:     "expenses",
	ViewPrograms:     "programs",
	ViewFees:         "fees",
}

// Views returns every view in declaration order.
func Views() []View {
	return []View{
		ViewRegistry, ViewFinance, ViewNotCompleted, ViewCompleted,
		ViewTravelled, ViewOnLoan, ViewExpenses, ViewPrograms, ViewFees,
	}
}

func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// Valid reports whether v is one of the declared views.
func (v View) Valid() bool {
	_, ok := viewNames[v]
	return ok
}

// Fast reports whether the view polls on the short interval. Expense and
// catalog screens refresh every 5s, student screens every 10s.
func (v View) Fast() bool {
	switch v {
	case ViewExpenses, ViewPrograms, ViewFees:
		return true
	}
	return false
}

// Default poll intervals
const (
	DefaultFastInterval = 5 * time.Second
	DefaultSlowInterval = 10 * time.Second
)
