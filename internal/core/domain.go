package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultCategory is assigned to expenses recorded without a category.
	DefaultCategory = "Other"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type (
	Income struct {
		ID        string          `json:"id"`
		UserID    string          `json:"user_id"`
		Amount    decimal.Decimal `json:"amount"`
		Source    string          `json:"source"`
		EntryDate Date            `json:"entry_date"`
		CreatedAt time.Time       `json:"created_at"`
	}

	Expense struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		EntryDate   Date            `json:"entry_date"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	// BudgetTarget is the spending target for one user and month.
	BudgetTarget struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		Month       Month           `json:"month"`
		TotalBudget decimal.Decimal `json:"total_budget"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	Profile struct {
		UserID        string          `json:"-"`
		MonthlyIncome decimal.Decimal `json:"monthly_income"`
		SavingsRate   decimal.Decimal `json:"savings_rate"`
	}

	User struct {
		ID           string    `json:"id"`
		Username     string    `json:"username"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}

	ChatMessage struct {
		ID        string    `json:"id"`
		UserID    string    `json:"-"`
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Notification is an alert raised for a user's month, stored once per message.
	Notification struct {
		ID        string    `json:"id"`
		UserID    string    `json:"-"`
		Month     Month     `json:"month"`
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month, expected YYYY-MM")
	ErrEmptySource        = errors.New("empty income source")
	ErrInvalidSavingsRate = errors.New("savings rate must be between 0 and 1")
	ErrEmptyUsername      = errors.New("empty username")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmptyMessage       = errors.New("empty message")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
)

// MaxDescriptionLength bounds an expense description, in bytes.
const MaxDescriptionLength = 500

var validationErrors = []error{
	ErrInvalidAmount,
	ErrInvalidDate,
	ErrInvalidMonth,
	ErrEmptySource,
	ErrInvalidSavingsRate,
	ErrEmptyUsername,
	ErrWeakPassword,
	ErrEmptyMessage,
	ErrDescriptionTooLong,
}

// IsValidation reports whether err is caused by malformed user input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validateAmount(a decimal.Decimal) error {
	if a.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (i Income) Validate() error {
	if err := validateAmount(i.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	if i.EntryDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	if e.EntryDate.IsZero() {
		return ErrInvalidDate
	}
	if len(e.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (b BudgetTarget) Validate() error {
	if b.Month.IsZero() {
		return ErrInvalidMonth
	}
	return validateAmount(b.TotalBudget)
}

func (p Profile) Validate() error {
	if err := validateAmount(p.MonthlyIncome); err != nil {
		return err
	}
	if p.SavingsRate.IsNegative() || p.SavingsRate.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidSavingsRate
	}
	return nil
}
