package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finassist/internal/core"
)

func decimalPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := decimal.RequireFromString(s)
	return &d
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid", `{"amount":12.5,"source":"Salary","date":"2025-01-05"}`, nil},
		{"unknown fields ignored", `{"amount":1,"source":"x","user_id":"spoofed"}`, nil},
		{"empty", ``, errBadRequest},
		{"syntax error", `{"amount":`, errBadRequest},
		{"wrong type", `{"source":42}`, errBadRequest},
		{"too large", `{"source":"` + strings.Repeat("a", maxBodyBytes) + `"}`, errBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var req incomeRequest
			err := decodeJSON(httptest.NewRecorder(), r, &req)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeOptionalJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	var req monthRequest
	if err := decodeOptionalJSON(httptest.NewRecorder(), r, &req); err != nil {
		t.Fatalf("empty optional body: %v", err)
	}
	if req.Month != "" {
		t.Fatalf("month = %q", req.Month)
	}
}

func TestIncomeRequestDates(t *testing.T) {
	today := core.NewDate(2025, time.March, 9)
	amount := decimalPtr(t, "10")

	tests := []struct {
		name string
		req  incomeRequest
		want core.Date
	}{
		{"defaults to today", incomeRequest{Amount: amount, Source: "x"}, today},
		{"date key", incomeRequest{Amount: amount, Source: "x", Date: core.NewDate(2025, time.January, 2)}, core.NewDate(2025, time.January, 2)},
		{"entry_date wins", incomeRequest{Amount: amount, Source: "x", Date: core.NewDate(2025, time.January, 2), EntryDate: core.NewDate(2025, time.February, 3)}, core.NewDate(2025, time.February, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := tt.req.toIncome(today)
			if err != nil {
				t.Fatalf("toIncome: %v", err)
			}
			if !in.EntryDate.Equal(tt.want.Time) {
				t.Fatalf("date = %s, want %s", in.EntryDate, tt.want)
			}
		})
	}

	if _, err := (incomeRequest{Source: "x"}).toIncome(today); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("missing amount err = %v", err)
	}
}

func TestExpenseRequestSanitizes(t *testing.T) {
	req := expenseRequest{Amount: decimalPtr(t, "3"), Category: " Food\x00 ", Description: "\tcoffee\x07"}
	e, err := req.toExpense(core.NewDate(2025, time.March, 9))
	if err != nil {
		t.Fatalf("toExpense: %v", err)
	}
	if e.Category != "Food" || e.Description != "coffee" {
		t.Fatalf("expense = %+v", e)
	}
}

func TestChatRequestText(t *testing.T) {
	tests := []struct {
		req  chatRequest
		want string
	}{
		{chatRequest{Message: "hi"}, "hi"},
		{chatRequest{Prompt: "from generate"}, "from generate"},
		{chatRequest{Message: "  ", Prompt: "fallback"}, "fallback"},
	}
	for _, tt := range tests {
		if got := tt.req.text(); got != tt.want {
			t.Errorf("text(%+v) = %q, want %q", tt.req, got, tt.want)
		}
	}
}

func TestParseMonthOr(t *testing.T) {
	def := core.NewMonth(2025, time.June)

	got, err := parseMonthOr("", def)
	if err != nil || got != def {
		t.Fatalf("empty = %v, %v", got, err)
	}
	got, err = parseMonthOr(" 2024-12 ", def)
	if err != nil || got != core.NewMonth(2024, time.December) {
		t.Fatalf("explicit = %v, %v", got, err)
	}
	if _, err := parseMonthOr("2024-13", def); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("invalid err = %v", err)
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    int
		wantErr bool
	}{
		{"absent uses default", url.Values{}, 6, false},
		{"explicit", url.Values{"months": {"12"}}, 12, false},
		{"negative", url.Values{"months": {"-1"}}, 0, true},
		{"not a number", url.Values{"months": {"six"}}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := queryInt(tt.query, "months", 6)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"tab\tkept", "tab\tkept"},
		{"nul\x00removed", "nulremoved"},
		{"line\nkept", "line\nkept"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
