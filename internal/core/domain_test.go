package core

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestIncomeValidate(t *testing.T) {
	good := Income{Amount: decimal.NewFromInt(10), Source: "Salary", EntryDate: NewDate(2025, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Income{
		{Amount: decimal.NewFromInt(-1), Source: "Salary", EntryDate: NewDate(2025, 1, 1)},
		{Amount: decimal.NewFromInt(1), Source: " ", EntryDate: NewDate(2025, 1, 1)},
		{Amount: decimal.NewFromInt(1), Source: "Salary"},
	}
	for i, in := range bads {
		if err := in.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Amount: decimal.NewFromInt(5), Category: "Food", EntryDate: NewDate(2025, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Expense{
		{Amount: decimal.NewFromInt(-5), EntryDate: NewDate(2025, 1, 1)},
		{Amount: decimal.NewFromInt(5)},
		{Amount: decimal.NewFromInt(5), EntryDate: NewDate(2025, 1, 1), Description: strings.Repeat("x", 501)},
	}
	for i, e := range bads {
		if err := e.Validate(); !IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestProfileValidate(t *testing.T) {
	if err := DefaultProfile("u").Validate(); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}
	p := Profile{MonthlyIncome: decimal.NewFromInt(1), SavingsRate: decimal.RequireFromString("1.5")}
	if err := p.Validate(); err != ErrInvalidSavingsRate {
		t.Fatalf("expected ErrInvalidSavingsRate, got %v", err)
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(fmt.Errorf("parse: %w", ErrInvalidAmount)) {
		t.Fatalf("wrapped amount error should be validation")
	}
	if IsValidation(fmt.Errorf("boom")) {
		t.Fatalf("plain error should not be validation")
	}
}
