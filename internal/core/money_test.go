package core

import (
	"encoding/json"
	"errors"
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
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
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

func TestParseDecimalToCents_TooLarge(t *testing.T) {
	_, err := ParseDecimalToCents("1000000000000")
	if !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		1250:   "12.50",
		123456: "1234.56",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Money{Cents: 1999}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":19.99}` {
		t.Fatalf("unexpected json %s", b)
	}

	var m Money
	if err := json.Unmarshal([]byte(`"7.5"`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Cents != 750 {
		t.Fatalf("expected 750 cents, got %d", m.Cents)
	}
}

func TestParseDecimalToCents_Errors(t *testing.T) {
	cases := map[string]error{
		"-1":    ErrAmountNotPositive,
		"0.004": ErrAmountNotPositive,
		"abc":   ErrInvalidAmount,
		"  ":    ErrInvalidAmount,
	}
	for in, want := range cases {
		if _, err := ParseDecimalToCents(in); !errors.Is(err, want) {
			t.Errorf("%q: expected %v, got %v", in, want, err)
		}
	}
}

func TestMoneyUnmarshalZero(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`0`), &m); err != nil {
		t.Fatalf("unmarshal zero: %v", err)
	}
	if m.Cents != 0 {
		t.Fatalf("expected 0 cents, got %d", m.Cents)
	}
	if err := json.Unmarshal([]byte(`"x"`), &m); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
