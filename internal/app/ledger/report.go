package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/eduserv/ledger/internal/app/models"
	"github.com/eduserv/ledger/internal/pkg/helpers"
	"github.com/eduserv/ledger/internal/pkg/money"
)

// Statement is the per-student data the PDF exporter lays out: one section per
// charge with (date, amount, method) rows and a total-paid footer.
type Statement struct {
	Student     *models.Student
	ProgramName string
	Balance     Balance
	History     History
	GeneratedAt time.Time
}

// BuildStatement derives balance and history from the same payment slice so
// the two always agree.
func BuildStatement(student *models.Student, programName string, fees FeeLookup, payments []*models.Payment, now time.Time) (Statement, error) {
	bal, err := Derive(student, fees, payments)
	if err != nil {
		return Statement{}, err
	}
	hist, err := GroupHistory(student.ID, fees, payments)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Student:     student,
		ProgramName: programName,
		Balance:     bal,
		History:     hist,
		GeneratedAt: now,
	}, nil
}

// ExpenseReport is a date-range slice of the expense log with its total.
type ExpenseReport struct {
	From     *time.Time
	To       *time.Time
	Title    string
	Expenses []*models.Expense
	Total    money.Amount
}

// SummarizeExpenses keeps the expenses inside [from, to] and totals exactly
// that filtered set.
func SummarizeExpenses(expenses []*models.Expense, from, to *time.Time, now time.Time) (ExpenseReport, error) {
	kept := make([]*models.Expense, 0, len(expenses))
	var total money.Amount
	for _, e := range expenses {
		if !helpers.InDateRange(e.Date, from, to) {
			continue
		}
		kept = append(kept, e)
		next, err := money.Add(total, e.Amount)
		if err != nil {
			return ExpenseReport{}, fmt.Errorf("expense total: %w", err)
		}
		total = next
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if !kept[i].Date.Equal(kept[j].Date) {
			return kept[i].Date.Before(kept[j].Date)
		}
		return kept[i].ID < kept[j].ID
	})
	return ExpenseReport{
		From:     from,
		To:       to,
		Title:    ExpenseReportTitle(from, to, now),
		Expenses: kept,
		Total:    total,
	}, nil
}

// ExpenseReportTitle names the report after its range.
func ExpenseReportTitle(from, to *time.Time, now time.Time) string {
	switch {
	case from != nil && to != nil:
		return fmt.Sprintf("Expense Report from %s to %s", helpers.FormatDate(*from), helpers.FormatDate(*to))
	case from != nil:
		return fmt.Sprintf("Expense Report from %s", helpers.FormatDate(*from))
	case to != nil:
		return fmt.Sprintf("Expense Report up to %s", helpers.FormatDate(*to))
	default:
		return fmt.Sprintf("Expense Report as of %s", helpers.FormatDate(now))
	}
}
