package http

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/export"
	applog "spendlog/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := core.ParseExpenseFilter(listQuery(r.URL.Query(), s.opts.DefaultPageSize))
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpList)
		return
	}

	page, err := s.expenses.ListExpenses(r.Context(), identityFrom(r.Context()), f)
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpList)
		return
	}
	if page.Expenses == nil {
		page.Expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpCreate)
		return
	}

	e, err := s.expenses.CreateExpense(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpCreate)
		return
	}

	s.metrics.recordExpenseOperation(applog.OpCreate)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		applog.NewFields().WithExpense(e.ID, string(e.Category), e.Amount.Cents).ToSlice()...)
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Expense created",
		"id":      e.ID,
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.expenses.GetExpense(r.Context(), identityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpRead)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpUpdate)
		return
	}

	e, err := s.expenses.UpdateExpense(r.Context(), identityFrom(r.Context()), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpUpdate)
		return
	}

	s.metrics.recordExpenseOperation(applog.OpUpdate)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Expense updated",
		"expense": e,
	})
}

// handleDeleteExpense answers 200 whether or not the expense existed.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.expenses.DeleteExpense(r.Context(), identityFrom(r.Context()), id); err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpDelete)
		return
	}

	s.metrics.recordExpenseOperation(applog.OpDelete)
	writeMessage(w, http.StatusOK, "Expense deleted")
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	f, err := core.ParseExpenseFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpSummary)
		return
	}

	summary, err := s.expenses.SummarizeExpenses(r.Context(), identityFrom(r.Context()), f)
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpSummary)
		return
	}
	if summary.ByCategory == nil {
		summary.ByCategory = []core.CategoryAmount{}
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleExportExpenses streams every expense matching the filter as an
// XLSX workbook. Paging parameters are ignored.
func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := core.ParseExpenseFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpExport)
		return
	}

	expenses, err := s.expenses.ExportExpenses(r.Context(), identityFrom(r.Context()), f)
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpExport)
		return
	}

	// Rendered to memory first so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, expenses); err != nil {
		writeServiceError(w, r, err, applog.ComponentExpense, applog.OpExport)
		return
	}

	s.metrics.recordExpenseOperation(applog.OpExport)
	w.Header().Set("Content-Type", export.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(core.Date{Time: time.Now().UTC()})+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
