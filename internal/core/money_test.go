package core

import (
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true}, // zero unit prices are allowed while editing
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(c.in)
			if c.ok && err != nil {
				t.Fatalf("ParseDecimalToCents(%q) unexpected error: %v", c.in, err)
			}
			if !c.ok && err == nil {
				t.Fatalf("ParseDecimalToCents(%q) expected error, got %d", c.in, got)
			}
			if got != c.out {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", c.in, got, c.out)
			}
		})
	}
}

func TestRoundCents(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		out  int64
	}{
		{"exact", 100, 100},
		{"half up", 100.5, 101},
		{"below half", 100.4, 100},
		{"negative half away", -100.5, -101},
		{"negative below half", -100.4, -100},
		{"nan coerced", math.NaN(), 0},
		{"positive inf coerced", math.Inf(1), 0},
		{"negative inf coerced", math.Inf(-1), 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := RoundCents(c.in); got != c.out {
				t.Errorf("RoundCents(%v) = %d, want %d", c.in, got, c.out)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1234, "12.34"},
		{-250, "-2.50"},
	}
	for _, c := range cases {
		if got := (Money{Cents: c.cents}).String(); got != c.want {
			t.Errorf("Money{%d}.String() = %q, want %q", c.cents, got, c.want)
		}
	}
}
