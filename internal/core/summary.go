package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusOnTrack      = "On Track"
	StatusOverBudget   = "Over Budget"
	StatusUnderBudget  = "Under Budget"
	StatusDisconnected = "Database not connected"

	AlertExceedIncome = "Expenses exceed income"
	AlertExceedBudget = "Expenses exceed budget"

	insightsPrefix      = "Top spending categories: "
	maxOverspending     = 3
	emergencyFundMonths = 3
)

// SavingsRecommendationRate is the share of income suggested as savings in
// every summary, regardless of the user's profile.
var SavingsRecommendationRate = decimal.RequireFromString("0.20")

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// CategoryBreakdown is an ordered category -> amount mapping. It keeps the
// order in which categories were first seen and serializes as a JSON object
// in that order.
type CategoryBreakdown []CategoryAmount

// Get returns the amount for a category and whether it is present.
func (b CategoryBreakdown) Get(name string) (decimal.Decimal, bool) {
	for _, c := range b {
		if c.Name == name {
			return c.Amount, true
		}
	}
	return decimal.Zero, false
}

// Total sums every bucket.
func (b CategoryBreakdown) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range b {
		total = total.Add(c.Amount)
	}
	return total
}

func (b CategoryBreakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(c.Amount.String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (b *CategoryBreakdown) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*b = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("category breakdown: expected object, got %v", tok)
	}
	out := CategoryBreakdown{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("category breakdown %q: %w", key, err)
		}
		amount, err := decimal.NewFromString(n.String())
		if err != nil {
			return fmt.Errorf("category breakdown %q: %w", key, err)
		}
		out = append(out, CategoryAmount{Name: key, Amount: amount})
	}
	*b = out
	return nil
}

// Summary is the derived monthly report. It is never persisted.
type Summary struct {
	TotalIncome                 decimal.Decimal   `json:"total_income"`
	TotalExpenses               decimal.Decimal   `json:"total_expenses"`
	RemainingBudget             decimal.Decimal   `json:"remaining_budget"`
	SavingsRecommendation       decimal.Decimal   `json:"savings_recommendation"`
	Status                      string            `json:"status"`
	CategoryBreakdown           CategoryBreakdown `json:"category_breakdown"`
	EmergencyFundRecommendation decimal.Decimal   `json:"emergency_fund_recommendation"`
	Alerts                      []string          `json:"alerts"`
	Insights                    string            `json:"insights"`
	OverspendingCategories      []string          `json:"overspending_categories"`
	RecentTransactions          []Expense         `json:"recent_transactions"`
	IncomeSources               []Income          `json:"income_sources"`
}

// Summarize aggregates one month of records into a Summary. budget may be
// nil when no target was set for the month. The inputs are not modified.
func Summarize(incomes []Income, expenses []Expense, budget *BudgetTarget) Summary {
	totalIncome := SumIncome(incomes)
	totalExpenses := SumExpenses(expenses)

	budgetAmount := decimal.Zero
	if budget != nil {
		budgetAmount = budget.TotalBudget
	}

	breakdown := Breakdown(expenses)
	overspending := TopCategories(breakdown, maxOverspending)

	s := Summary{
		TotalIncome:                 totalIncome,
		TotalExpenses:               totalExpenses,
		RemainingBudget:             budgetAmount.Sub(totalExpenses),
		SavingsRecommendation:       totalIncome.Mul(SavingsRecommendationRate),
		Status:                      BudgetStatus(totalExpenses, budgetAmount),
		CategoryBreakdown:           breakdown,
		EmergencyFundRecommendation: totalExpenses.Mul(decimal.NewFromInt(emergencyFundMonths)),
		Alerts:                      Alerts(totalIncome, totalExpenses, budgetAmount),
		OverspendingCategories:      overspending,
		RecentTransactions:          newestExpensesFirst(expenses),
		IncomeSources:               newestIncomesFirst(incomes),
	}
	if len(overspending) > 0 {
		s.Insights = insightsPrefix + strings.Join(overspending, ", ")
	}
	return s
}

// DegradedSummary is returned when no record store is configured.
func DegradedSummary() Summary {
	return Summary{
		TotalIncome:                 decimal.Zero,
		TotalExpenses:               decimal.Zero,
		RemainingBudget:             decimal.Zero,
		SavingsRecommendation:       decimal.Zero,
		Status:                      StatusDisconnected,
		CategoryBreakdown:           CategoryBreakdown{},
		EmergencyFundRecommendation: decimal.Zero,
		Alerts:                      []string{},
		OverspendingCategories:      []string{},
		RecentTransactions:          []Expense{},
		IncomeSources:               []Income{},
	}
}

// BudgetStatus classifies spending against the budget amount.
func BudgetStatus(expenses, budget decimal.Decimal) string {
	switch {
	case expenses.GreaterThan(budget) && budget.IsPositive():
		return StatusOverBudget
	case expenses.LessThan(budget):
		return StatusUnderBudget
	default:
		return StatusOnTrack
	}
}

// Alerts returns the warnings raised by the totals. Both may fire.
func Alerts(income, expenses, budget decimal.Decimal) []string {
	alerts := []string{}
	if expenses.GreaterThan(income) && income.IsPositive() {
		alerts = append(alerts, AlertExceedIncome)
	}
	if budget.IsPositive() && expenses.GreaterThan(budget) {
		alerts = append(alerts, AlertExceedBudget)
	}
	return alerts
}

// Breakdown sums expense amounts per category in first-seen order.
func Breakdown(expenses []Expense) CategoryBreakdown {
	out := CategoryBreakdown{}
	index := make(map[string]int, len(expenses))
	for _, e := range expenses {
		if i, ok := index[e.Category]; ok {
			out[i].Amount = out[i].Amount.Add(e.Amount)
			continue
		}
		index[e.Category] = len(out)
		out = append(out, CategoryAmount{Name: e.Category, Amount: e.Amount})
	}
	return out
}

// TopCategories returns up to n category names by amount descending.
// Ties keep breakdown order.
func TopCategories(b CategoryBreakdown, n int) []string {
	sorted := make(CategoryBreakdown, len(b))
	copy(sorted, b)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.GreaterThan(sorted[j].Amount)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	names := make([]string, 0, len(sorted))
	for _, c := range sorted {
		names = append(names, c.Name)
	}
	return names
}

func newestExpensesFirst(in []Expense) []Expense {
	out := make([]Expense, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].EntryDate, out[i].CreatedAt, out[j].EntryDate, out[j].CreatedAt)
	})
	return out
}

func newestIncomesFirst(in []Income) []Income {
	out := make([]Income, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].EntryDate, out[i].CreatedAt, out[j].EntryDate, out[j].CreatedAt)
	})
	return out
}

func newer(dateA Date, createdA time.Time, dateB Date, createdB time.Time) bool {
	if !dateA.Equal(dateB.Time) {
		return dateA.After(dateB.Time)
	}
	return createdA.After(createdB)
}
