package core

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// ExpenseFilter is a normalized list query. A zero Category, Day or Search
// imposes no constraint.
type ExpenseFilter struct {
	Category Category
	Day      Date
	Search   string
	Page     int
	Limit    int
}

// ExpensePage is one page of a filtered, date-descending listing.
type ExpensePage struct {
	Expenses []Expense `json:"expenses"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// ParseExpenseFilter normalizes query parameters. Bad paging values fall
// back to defaults; a bad category or date is a validation error.
func ParseExpenseFilter(q url.Values) (ExpenseFilter, error) {
	f := ExpenseFilter{
		Page:  positiveInt(q.Get("page"), 1),
		Limit: positiveInt(q.Get("limit"), DefaultPageSize),
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	verr := &ValidationError{}
	if c := strings.TrimSpace(q.Get("category")); c != "" {
		if !Category(c).Valid() {
			verr.add(FieldCategory, "Invalid category")
		} else {
			f.Category = Category(c)
		}
	}
	if d := strings.TrimSpace(q.Get("date")); d != "" {
		parsed, err := ParseDate(d)
		if err != nil {
			verr.add(FieldDate, "Invalid date")
		} else {
			f.Day = parsed.StartOfDay()
		}
	}
	f.Search = SanitizeText(q.Get("search"))

	if err := verr.orNil(); err != nil {
		return ExpenseFilter{}, err
	}
	return f, nil
}

// Offset is the number of rows skipped before this page.
func (f ExpenseFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// PageCount returns ceil(total/limit).
func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
