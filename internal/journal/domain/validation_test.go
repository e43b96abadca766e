package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFilterLinesDropsEmptyLines(t *testing.T) {
	filtered, err := FilterLines([]Line{
		{AccountID: 1, Debit: decimal.NewFromInt(100)},
		{AccountID: 2},
		{AccountID: 3, Credit: decimal.NewFromInt(100)},
	})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(filtered))
	}
}

func TestFilterLinesRejectsNegative(t *testing.T) {
	_, err := FilterLines([]Line{
		{AccountID: 1, Debit: decimal.NewFromInt(-5)},
	})
	if !errors.Is(err, ErrInvalidLineAmount) {
		t.Fatalf("expected ErrInvalidLineAmount, got %v", err)
	}
}

func TestBalancedWithinEpsilon(t *testing.T) {
	cases := []struct {
		name   string
		debit  string
		credit string
		want   bool
	}{
		{"exact", "100.00", "100.00", true},
		{"one cent off", "100.01", "100.00", true},
		{"two cents off", "100.02", "100.00", false},
		{"way off", "100.00", "50.00", false},
	}
	for _, tc := range cases {
		lines := []Line{
			{AccountID: 1, Debit: decimal.RequireFromString(tc.debit)},
			{AccountID: 2, Credit: decimal.RequireFromString(tc.credit)},
		}
		if got := Balanced(lines); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestSumLines(t *testing.T) {
	debit, credit := SumLines([]Line{
		{Debit: decimal.NewFromInt(60)},
		{Debit: decimal.NewFromInt(40)},
		{Credit: decimal.NewFromInt(100)},
	})
	if debit.StringFixed(2) != "100.00" || credit.StringFixed(2) != "100.00" {
		t.Fatalf("unexpected sums: debit=%s credit=%s", debit.StringFixed(2), credit.StringFixed(2))
	}
}
