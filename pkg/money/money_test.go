package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineTotal(t *testing.T) {
	got := LineTotal(decimal.RequireFromString("12.345"), 3)
	if Format(got) != "37.035" {
		t.Fatalf("unexpected line total %s", Format(got))
	}
}

func TestPercentRoundsToScale(t *testing.T) {
	got := Percent(decimal.RequireFromString("33.333"), decimal.NewFromInt(10))
	if Format(got) != "3.333" {
		t.Fatalf("unexpected percent %s", Format(got))
	}
}

func TestClamp(t *testing.T) {
	lo, hi := decimal.Zero, decimal.NewFromInt(30)
	if !Clamp(decimal.NewFromInt(50), lo, hi).Equal(hi) {
		t.Fatalf("expected clamp to upper bound")
	}
	if !Clamp(decimal.NewFromInt(-1), lo, hi).Equal(lo) {
		t.Fatalf("expected clamp to lower bound")
	}
	if !Clamp(decimal.NewFromInt(7), lo, hi).Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected value inside bounds to pass through")
	}
}

func TestNonNegative(t *testing.T) {
	if !NonNegative(decimal.NewFromInt(-5)).IsZero() {
		t.Fatalf("expected negative amount to become zero")
	}
}
