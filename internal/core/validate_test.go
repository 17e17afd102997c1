package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestValidateExpense_Valid(t *testing.T) {
	in := ExpenseInput{
		Amount:      json.RawMessage(`12.5`),
		Category:    "Food",
		Date:        "2024-03-15",
		Description: "  Lunch\x00 ",
		ReceiptURL:  strPtr("https://cdn.example.com/r/1.png"),
	}
	got, err := ValidateExpense(in)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got.Amount.Cents != 1250 {
		t.Errorf("amount = %d, want 1250", got.Amount.Cents)
	}
	if got.Category != Food {
		t.Errorf("category = %q", got.Category)
	}
	if got.Description != "Lunch" {
		t.Errorf("description = %q", got.Description)
	}
	if got.ReceiptURL == nil || *got.ReceiptURL != "https://cdn.example.com/r/1.png" {
		t.Errorf("receipt url = %v", got.ReceiptURL)
	}
}

func TestValidateExpense_AmountForms(t *testing.T) {
	cases := []struct {
		raw   string
		cents int64
		msg   string
	}{
		{`42`, 4200, ""},
		{`"42.10"`, 4210, ""},
		{`12.345`, 1235, ""},
		{`"12,5"`, 1250, ""},
		{`1000000000000`, 0, "Amount is too large"},
		{`0.004`, 0, "Amount must be positive"},
		{`-3`, 0, "Amount must be positive"},
		{`"abc"`, 0, "Amount must be a number"},
		{`true`, 0, "Amount must be a number"},
		{`""`, 0, "Amount is required"},
		{`null`, 0, "Amount is required"},
		{``, 0, "Amount is required"},
	}
	for _, tc := range cases {
		got, err := ValidateExpense(ExpenseInput{
			Amount:   json.RawMessage(tc.raw),
			Category: "Rent",
			Date:     "2024-01-01",
		})
		if tc.msg == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.raw, err)
			}
			if got.Amount.Cents != tc.cents {
				t.Fatalf("%s: cents = %d, want %d", tc.raw, got.Amount.Cents, tc.cents)
			}
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.raw, err)
		}
		if verr.Message() != tc.msg {
			t.Fatalf("%s: message = %q, want %q", tc.raw, verr.Message(), tc.msg)
		}
	}
}

func TestValidateExpense_CollectsAllViolations(t *testing.T) {
	_, err := ValidateExpense(ExpenseInput{ReceiptURL: strPtr("not a url")})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError")
	}
	want := []string{FieldAmount, FieldCategory, FieldDate, FieldReceiptURL}
	if len(verr.Violations) != len(want) {
		t.Fatalf("violations = %+v", verr.Violations)
	}
	for i, f := range want {
		if verr.Violations[i].Field != f {
			t.Errorf("violation %d field = %q, want %q", i, verr.Violations[i].Field, f)
		}
	}
	if verr.Message() != "Amount is required" {
		t.Errorf("first message = %q", verr.Message())
	}
}

func TestValidateExpense_CategoryAndDate(t *testing.T) {
	_, err := ValidateExpense(ExpenseInput{Amount: json.RawMessage(`1`), Category: "Groceries", Date: "yesterday"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Violations) != 2 {
		t.Fatalf("violations = %+v", verr.Violations)
	}
	if verr.Violations[0].Message != "Invalid category" || verr.Violations[1].Message != "Invalid date" {
		t.Fatalf("unexpected messages %+v", verr.Violations)
	}
}

func TestValidateExpense_ReceiptURL(t *testing.T) {
	cases := []struct {
		url   *string
		ok    bool
		isNil bool
	}{
		{nil, true, true},
		{strPtr(""), true, true},
		{strPtr("   "), true, true},
		{strPtr("http://example.com/a.jpg"), true, false},
		{strPtr("ftp://example.com/a.jpg"), false, false},
		{strPtr("/relative/path.jpg"), false, false},
		{strPtr("https://"), false, false},
	}
	for i, tc := range cases {
		got, err := ValidateExpense(ExpenseInput{
			Amount:     json.RawMessage(`1`),
			Category:   "Transport",
			Date:       "2024-01-01",
			ReceiptURL: tc.url,
		})
		if tc.ok != (err == nil) {
			t.Fatalf("case %d: ok=%v err=%v", i, tc.ok, err)
		}
		if tc.ok && tc.isNil != (got.ReceiptURL == nil) {
			t.Fatalf("case %d: receipt url nil=%v", i, got.ReceiptURL == nil)
		}
	}
}

func TestValidateExpense_DescriptionTooLong(t *testing.T) {
	_, err := ValidateExpense(ExpenseInput{
		Amount:      json.RawMessage(`1`),
		Category:    "Food",
		Date:        "2024-01-01",
		Description: strings.Repeat("x", MaxDescriptionLength+1),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(NotFound("Expense")); got != "Expense not found" {
		t.Errorf("got %q", got)
	}
	if got := PublicMessage(errors.New("disk on fire")); got != "internal server error" {
		t.Errorf("got %q", got)
	}
	wrapped := Errorf(ErrConflict, "User already exists")
	if !errors.Is(wrapped, ErrConflict) {
		t.Errorf("expected ErrConflict kind")
	}
}
