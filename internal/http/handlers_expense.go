package http

import (
	"net/http"

	"finassist/internal/log"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create expense", err)
		return
	}
	e, err := req.toExpense(s.today())
	if err != nil {
		writeError(w, r, "create expense", err)
		return
	}
	created, err := s.finance.AddExpense(r.Context(), userID(r), e)
	if err != nil {
		writeError(w, r, "create expense", err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogRecordChanged(r.Context(),
		log.OpCreate, "expense", created.ID, created.UserID, created.EntryDate.MonthKey().String())
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

// handleListExpenses lists the expenses of ?month=YYYY-MM, defaulting to the current month.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthOr(r.URL.Query().Get("month"), s.finance.CurrentMonth())
	if err != nil {
		writeError(w, r, "list expenses", err)
		return
	}
	expenses, err := s.finance.ListExpenses(r.Context(), userID(r), month)
	if err != nil {
		writeError(w, r, "list expenses", err)
		return
	}
	NewJSONResponse().Body(nonNil(expenses)).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "update expense", err)
		return
	}
	e, err := req.toExpense(s.today())
	if err != nil {
		writeError(w, r, "update expense", err)
		return
	}
	updated, err := s.finance.UpdateExpense(r.Context(), userID(r), r.PathValue("id"), e)
	if err != nil {
		writeError(w, r, "update expense", err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogRecordChanged(r.Context(),
		log.OpUpdate, "expense", updated.ID, updated.UserID, updated.EntryDate.MonthKey().String())
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.finance.DeleteExpense(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, "delete expense", err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogRecordChanged(r.Context(),
		log.OpDelete, "expense", deleted.ID, deleted.UserID, deleted.EntryDate.MonthKey().String())
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
