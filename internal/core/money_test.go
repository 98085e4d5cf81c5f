package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"3.50", 350, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"99999999.99", MaxAmountCents, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1e2", 0, false},
		{"1E-2", 0, false},
		{"1e2000000000", 0, false},
		{".", 0, false},
		{"0x10", 0, false},
		{"00000000000000000000000000000001.5", 0, false}, // longer than any real amount
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseDecimalToCentsTooLarge(t *testing.T) {
	_, err := ParseDecimalToCents("100000000")
	if !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		350:    "3.50",
		123456: "1234.56",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "₹0.00"},
		{350, "₹3.50"},
		{123456, "₹1,234.56"},
		{123456789, "₹1,234,567.89"},
		{-1050, "-₹10.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Format("₹"); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyDecimalIsExact(t *testing.T) {
	// 0.1 + 0.2 in cents stays exact
	sum := Money{Cents: 10}.Add(Money{Cents: 20})
	if !sum.Decimal().Equal(decimal.RequireFromString("0.30")) {
		t.Fatalf("expected 0.30, got %s", sum.Decimal())
	}
}
