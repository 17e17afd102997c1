package google

import (
	"context"
	"testing"

	"spendlog/internal/core"
)

func TestRowOf(t *testing.T) {
	values := [][]any{
		{"ID", "Date"},
		{},
		{"abc"},
		{" def ", "2024-01-01"},
	}
	tests := []struct {
		id   string
		want int
	}{
		{"abc", 3},
		{"def", 4},
		{"missing", 0},
	}
	for _, tt := range tests {
		if got := rowOf(values, tt.id); got != tt.want {
			t.Errorf("rowOf(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("Expenses", 7); got != "Expenses!A7:G7" {
		t.Errorf("rowRange = %q", got)
	}
}

func TestClientWithoutService(t *testing.T) {
	c := &Client{}
	if err := c.UpsertExpense(context.Background(), core.Expense{ID: "x"}); err == nil {
		t.Error("expected error without service")
	}
	if err := c.RemoveExpense(context.Background(), "x"); err == nil {
		t.Error("expected error without service")
	}
}

func TestServiceAccountCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := serviceAccountCredentials(); err == nil {
		t.Error("expected error without credentials")
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)
	data, err := serviceAccountCredentials()
	if err != nil || string(data) != `{"type":"service_account"}` {
		t.Errorf("inline credentials = %q, %v", data, err)
	}
}

func TestNewFromEnvRequiresSpreadsheet(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Error("expected error without GOOGLE_SPREADSHEET_ID")
	}
}
