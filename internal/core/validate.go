package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

const MaxDescriptionLength = 500

// Field names as they appear in request payloads.
const (
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldDescription = "description"
	FieldReceiptURL  = "receiptUrl"
)

// ValidateExpense checks a raw payload and returns the normalized expense.
// All violations are collected; on failure the returned error is a
// *ValidationError and the expense is the zero value.
func ValidateExpense(in ExpenseInput) (Expense, error) {
	verr := &ValidationError{}
	var out Expense

	if amount, msg := parseAmount(in.Amount); msg != "" {
		verr.add(FieldAmount, msg)
	} else {
		out.Amount = amount
	}

	category := strings.TrimSpace(in.Category)
	switch {
	case category == "":
		verr.add(FieldCategory, "Category is required")
	case !Category(category).Valid():
		verr.add(FieldCategory, "Invalid category")
	default:
		out.Category = Category(category)
	}

	if strings.TrimSpace(in.Date) == "" {
		verr.add(FieldDate, "Date is required")
	} else if d, err := ParseDate(in.Date); err != nil {
		verr.add(FieldDate, "Invalid date")
	} else {
		out.Date = d
	}

	desc := SanitizeText(in.Description)
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		verr.add(FieldDescription, "Description is too long")
	} else {
		out.Description = desc
	}

	if in.ReceiptURL != nil {
		raw := strings.TrimSpace(*in.ReceiptURL)
		if raw != "" {
			if !IsWebURL(raw) {
				verr.add(FieldReceiptURL, "Invalid URL")
			} else {
				out.ReceiptURL = &raw
			}
		}
	}

	if err := verr.orNil(); err != nil {
		return Expense{}, err
	}
	return out, nil
}

func parseAmount(raw json.RawMessage) (Money, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Money{}, "Amount is required"
	}

	literal := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &literal); err != nil {
			return Money{}, "Amount must be a number"
		}
		literal = strings.TrimSpace(literal)
		if literal == "" {
			return Money{}, "Amount is required"
		}
	}

	cents, err := ParseDecimalToCents(literal)
	switch {
	case errors.Is(err, ErrAmountNotPositive):
		return Money{}, "Amount must be positive"
	case errors.Is(err, ErrAmountTooLarge):
		return Money{}, "Amount is too large"
	case err != nil:
		return Money{}, "Amount must be a number"
	}
	return Money{Cents: cents}, ""
}

// IsWebURL reports whether s is an absolute http(s) URL with a host.
func IsWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// SanitizeText removes control characters except tab and newlines, then trims.
func SanitizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
