package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Rent          Category = "Rent"
)

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a single categorized transaction. OwnerID is never
	// serialized; ownership is implied by the session that reads it.
	Expense struct {
		ID          string    `json:"id"`
		OwnerID     string    `json:"-"`
		Amount      Money     `json:"amount"`
		Category    Category  `json:"category"`
		Date        Date      `json:"date"`
		Description string    `json:"description,omitempty"`
		ReceiptURL  *string   `json:"receiptUrl"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// ExpenseInput is the raw, unvalidated write payload.
	ExpenseInput struct {
		Amount      json.RawMessage `json:"amount"`
		Category    string          `json:"category"`
		Date        string          `json:"date"`
		Description string          `json:"description"`
		ReceiptURL  *string         `json:"receiptUrl"`
	}

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	// Identity is what an authenticated session resolves to.
	Identity struct {
		UserID    string
		Email     string
		TokenID   string
		ExpiresAt time.Time
	}
)

// Categories lists the closed set of expense categories in display order.
var Categories = []Category{Food, Transport, Entertainment, Rent}

var ErrInvalidDate = errors.New("invalid date")

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts an RFC 3339 timestamp, a local datetime or a bare
// calendar date. The result is always in UTC.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t.UTC()}, nil
		}
	}
	return Date{}, ErrInvalidDate
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// StartOfDay truncates the date to midnight UTC.
func (d Date) StartOfDay() Date {
	y, m, day := d.UTC().Date()
	return Date{Time: time.Date(y, m, day, 0, 0, 0, 0, time.UTC)}
}

// NextDay returns midnight UTC of the following calendar day.
func (d Date) NextDay() Date {
	return Date{Time: d.StartOfDay().AddDate(0, 0, 1)}
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// HasReceipt reports whether a receipt URL is attached.
func (e Expense) HasReceipt() bool {
	return e.ReceiptURL != nil && *e.ReceiptURL != ""
}
