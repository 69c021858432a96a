package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"1.005", "1.005", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestSumsAreOrderIndependent(t *testing.T) {
	amounts := []string{"0.1", "0.2", "100.35", "7"}
	var forward, backward []Expense
	for _, a := range amounts {
		forward = append(forward, Expense{Amount: decimal.RequireFromString(a)})
	}
	for i := len(amounts) - 1; i >= 0; i-- {
		backward = append(backward, Expense{Amount: decimal.RequireFromString(amounts[i])})
	}
	want := decimal.RequireFromString("107.65")
	if got := SumExpenses(forward); !got.Equal(want) {
		t.Fatalf("forward sum %s, want %s", got, want)
	}
	if got := SumExpenses(backward); !got.Equal(want) {
		t.Fatalf("backward sum %s, want %s", got, want)
	}
	if got := SumIncome(nil); !got.IsZero() {
		t.Fatalf("empty income sum %s", got)
	}
}
