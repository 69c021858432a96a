package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultSavingsRate applies to profiles that never set one. It is
// independent from the fixed shares of the 50/30/20 plan.
var DefaultSavingsRate = decimal.RequireFromString("0.2")

var (
	needsShare   = decimal.RequireFromString("0.5")
	wantsShare   = decimal.RequireFromString("0.3")
	savingsShare = decimal.RequireFromString("0.2")
)

// PlanFallbackExplanation replaces a missing or blank generated explanation.
const PlanFallbackExplanation = "The 50/30/20 rule allocates 50% of income to needs, " +
	"30% to wants, and 20% to savings and debt repayment."

// DefaultProfile is what a user without a stored profile gets.
func DefaultProfile(userID string) Profile {
	return Profile{UserID: userID, MonthlyIncome: decimal.Zero, SavingsRate: DefaultSavingsRate}
}

// EffectiveSavingsRate treats an unset (zero) rate as the default.
func EffectiveSavingsRate(p Profile) decimal.Decimal {
	if p.SavingsRate.IsZero() {
		return DefaultSavingsRate
	}
	return p.SavingsRate
}

// ResolveMonthlyIncome prefers the declared profile income and falls back
// to the month's recorded incomes.
func ResolveMonthlyIncome(p Profile, incomes []Income) decimal.Decimal {
	if !p.MonthlyIncome.IsZero() {
		return p.MonthlyIncome
	}
	return SumIncome(incomes)
}

// AutoBudget is the spendable share of income after savings.
func AutoBudget(income, savingsRate decimal.Decimal) decimal.Decimal {
	return income.Mul(decimal.NewFromInt(1).Sub(savingsRate))
}

// Plan is a 50/30/20 split of a monthly income.
type Plan struct {
	Month       Month           `json:"month"`
	Income      decimal.Decimal `json:"income"`
	Needs       decimal.Decimal `json:"needs"`
	Wants       decimal.Decimal `json:"wants"`
	Savings     decimal.Decimal `json:"savings"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	Explanation string          `json:"explanation"`
}

// NewPlan splits income. The explanation is left empty.
func NewPlan(month Month, income decimal.Decimal) Plan {
	needs := income.Mul(needsShare)
	wants := income.Mul(wantsShare)
	return Plan{
		Month:       month,
		Income:      income,
		Needs:       needs,
		Wants:       wants,
		Savings:     income.Mul(savingsShare),
		TotalBudget: needs.Add(wants),
	}
}

// ExplanationPrompt is the question sent to the text generator for a plan.
func (p Plan) ExplanationPrompt() string {
	return fmt.Sprintf(
		"Explain briefly, in plain language, why a monthly income of %s is split into "+
			"%s for needs, %s for wants and %s for savings under the 50/30/20 rule.",
		p.Income.StringFixed(2), p.Needs.StringFixed(2), p.Wants.StringFixed(2), p.Savings.StringFixed(2))
}
