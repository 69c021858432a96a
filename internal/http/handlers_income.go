package http

import (
	"net/http"

	"finassist/internal/log"
)

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "create income", err)
		return
	}
	in, err := req.toIncome(s.today())
	if err != nil {
		writeError(w, r, "create income", err)
		return
	}
	created, err := s.finance.AddIncome(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, "create income", err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogRecordChanged(r.Context(),
		log.OpCreate, "income", created.ID, created.UserID, created.EntryDate.MonthKey().String())
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

// handleListIncomes lists the incomes of ?month=YYYY-MM, defaulting to the current month.
func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthOr(r.URL.Query().Get("month"), s.finance.CurrentMonth())
	if err != nil {
		writeError(w, r, "list incomes", err)
		return
	}
	incomes, err := s.finance.ListIncomes(r.Context(), userID(r), month)
	if err != nil {
		writeError(w, r, "list incomes", err)
		return
	}
	NewJSONResponse().Body(nonNil(incomes)).Write(w)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "update income", err)
		return
	}
	in, err := req.toIncome(s.today())
	if err != nil {
		writeError(w, r, "update income", err)
		return
	}
	updated, err := s.finance.UpdateIncome(r.Context(), userID(r), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, "update income", err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogRecordChanged(r.Context(),
		log.OpUpdate, "income", updated.ID, updated.UserID, updated.EntryDate.MonthKey().String())
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.finance.DeleteIncome(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, "delete income", err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogRecordChanged(r.Context(),
		log.OpDelete, "income", deleted.ID, deleted.UserID, deleted.EntryDate.MonthKey().String())
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
