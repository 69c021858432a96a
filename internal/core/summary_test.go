package core

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarizeExample(t *testing.T) {
	incomes := []Income{{Amount: dec("2000"), Source: "Salary", EntryDate: NewDate(2025, 1, 1)}}
	expenses := []Expense{
		{Amount: dec("600"), Category: "Food", EntryDate: NewDate(2025, 1, 3)},
		{Amount: dec("900"), Category: "Rent", EntryDate: NewDate(2025, 1, 1)},
	}
	budget := &BudgetTarget{Month: NewMonth(2025, time.January), TotalBudget: dec("1400")}

	s := Summarize(incomes, expenses, budget)

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"total_income", s.TotalIncome, "2000"},
		{"total_expenses", s.TotalExpenses, "1500"},
		{"remaining_budget", s.RemainingBudget, "-100"},
		{"emergency_fund", s.EmergencyFundRecommendation, "4500"},
		{"savings", s.SavingsRecommendation, "400"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if s.Status != StatusOverBudget {
		t.Errorf("status = %q", s.Status)
	}
	if !reflect.DeepEqual(s.Alerts, []string{AlertExceedBudget}) {
		t.Errorf("alerts = %v", s.Alerts)
	}
	if !reflect.DeepEqual(s.OverspendingCategories, []string{"Rent", "Food"}) {
		t.Errorf("overspending = %v", s.OverspendingCategories)
	}
	if s.Insights != "Top spending categories: Rent, Food" {
		t.Errorf("insights = %q", s.Insights)
	}
	b, err := json.Marshal(s.CategoryBreakdown)
	if err != nil {
		t.Fatalf("marshal breakdown: %v", err)
	}
	if string(b) != `{"Food":600,"Rent":900}` {
		t.Errorf("breakdown json = %s", b)
	}
	if s.RecentTransactions[0].Category != "Food" {
		t.Errorf("recent transactions should be newest first, got %v", s.RecentTransactions[0].Category)
	}
	if expenses[0].Category != "Food" || expenses[1].Category != "Rent" {
		t.Errorf("input slice was reordered")
	}
}

func TestBudgetStatus(t *testing.T) {
	cases := []struct {
		expenses, budget, want string
	}{
		{"100", "100", StatusOnTrack},
		{"150", "100", StatusOverBudget},
		{"50", "100", StatusUnderBudget},
		{"0", "0", StatusOnTrack},
		{"10", "0", StatusOnTrack},
	}
	for _, tc := range cases {
		if got := BudgetStatus(dec(tc.expenses), dec(tc.budget)); got != tc.want {
			t.Errorf("(%s, %s) = %q, want %q", tc.expenses, tc.budget, got, tc.want)
		}
	}
}

func TestAlertsFireIndependently(t *testing.T) {
	cases := []struct {
		income, expenses, budget string
		want                     []string
	}{
		{"100", "200", "150", []string{AlertExceedIncome, AlertExceedBudget}},
		{"0", "200", "0", []string{}},
		{"300", "200", "100", []string{AlertExceedBudget}},
		{"100", "200", "0", []string{AlertExceedIncome}},
	}
	for _, tc := range cases {
		got := Alerts(dec(tc.income), dec(tc.expenses), dec(tc.budget))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("alerts(%s,%s,%s) = %v, want %v", tc.income, tc.expenses, tc.budget, got, tc.want)
		}
	}
}

func TestBreakdownSumsToTotal(t *testing.T) {
	expenses := []Expense{
		{Amount: dec("10.10"), Category: "Food"},
		{Amount: dec("5"), Category: "Transport"},
		{Amount: dec("2.35"), Category: "Food"},
		{Amount: dec("40"), Category: "Housing"},
		{Amount: dec("1"), Category: "Other"},
	}
	s := Summarize(nil, expenses, nil)
	if !s.CategoryBreakdown.Total().Equal(s.TotalExpenses) {
		t.Fatalf("breakdown total %s != %s", s.CategoryBreakdown.Total(), s.TotalExpenses)
	}
	names := []string{}
	for _, c := range s.CategoryBreakdown {
		names = append(names, c.Name)
	}
	if !reflect.DeepEqual(names, []string{"Food", "Transport", "Housing", "Other"}) {
		t.Fatalf("first-seen order broken: %v", names)
	}
	if food, _ := s.CategoryBreakdown.Get("Food"); !food.Equal(dec("12.45")) {
		t.Fatalf("food = %s", food)
	}
	if len(s.OverspendingCategories) != 3 {
		t.Fatalf("overspending len = %d", len(s.OverspendingCategories))
	}
	if !reflect.DeepEqual(s.OverspendingCategories, []string{"Housing", "Food", "Transport"}) {
		t.Fatalf("overspending = %v", s.OverspendingCategories)
	}
	if !s.EmergencyFundRecommendation.Equal(s.TotalExpenses.Mul(decimal.NewFromInt(3))) {
		t.Fatalf("emergency fund = %s", s.EmergencyFundRecommendation)
	}

	incomes := []Income{{Amount: dec("1200.50")}, {Amount: dec("0.25")}, {Amount: dec("300")}}
	base := Summarize(incomes, expenses, nil)
	for _, order := range orderings(len(expenses)) {
		shuffled := make([]Expense, len(expenses))
		for i, j := range order {
			shuffled[i] = expenses[j]
		}
		reversedIncomes := []Income{incomes[2], incomes[0], incomes[1]}
		got := Summarize(reversedIncomes, shuffled, nil)
		if !got.TotalExpenses.Equal(base.TotalExpenses) || !got.TotalIncome.Equal(base.TotalIncome) {
			t.Fatalf("order %v: totals %s/%s, want %s/%s", order,
				got.TotalIncome, got.TotalExpenses, base.TotalIncome, base.TotalExpenses)
		}
		for _, c := range base.CategoryBreakdown {
			if amt, ok := got.CategoryBreakdown.Get(c.Name); !ok || !amt.Equal(c.Amount) {
				t.Fatalf("order %v: %s = %s, want %s", order, c.Name, amt, c.Amount)
			}
		}
	}
}

// orderings returns every rotation of 0..n-1 and its reverse.
func orderings(n int) [][]int {
	var out [][]int
	for shift := 0; shift < n; shift++ {
		fwd := make([]int, n)
		rev := make([]int, n)
		for i := range fwd {
			fwd[i] = (i + shift) % n
			rev[n-1-i] = fwd[i]
		}
		out = append(out, fwd, rev)
	}
	return out
}

func TestTopCategoriesStableOnTies(t *testing.T) {
	b := CategoryBreakdown{
		{Name: "A", Amount: dec("5")},
		{Name: "B", Amount: dec("7")},
		{Name: "C", Amount: dec("5")},
		{Name: "D", Amount: dec("5")},
	}
	if got := TopCategories(b, 3); !reflect.DeepEqual(got, []string{"B", "A", "C"}) {
		t.Fatalf("top = %v", got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, nil)
	if s.Status != StatusOnTrack || s.Insights != "" || len(s.Alerts) != 0 {
		t.Fatalf("unexpected empty summary: %+v", s)
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"alerts", "overspending_categories", "recent_transactions", "income_sources"} {
		if _, ok := back[key].([]any); !ok {
			t.Errorf("%s should be an empty array, got %v", key, back[key])
		}
	}
}

func TestDegradedSummary(t *testing.T) {
	s := DegradedSummary()
	if s.Status != StatusDisconnected {
		t.Fatalf("status = %q", s.Status)
	}
	if !s.TotalIncome.IsZero() || !s.TotalExpenses.IsZero() || !s.RemainingBudget.IsZero() {
		t.Fatalf("numerics should be zero: %+v", s)
	}
	b, _ := json.Marshal(s)
	var back Summary
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if back.Status != StatusDisconnected || len(back.CategoryBreakdown) != 0 {
		t.Fatalf("round trip = %+v", back)
	}
}
