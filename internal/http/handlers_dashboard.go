package http

import (
	"net/http"

	"finassist/internal/core"
	"finassist/internal/services"
)

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "set budget", err)
		return
	}
	month, err := core.ParseMonth(req.Month)
	if err != nil {
		writeError(w, r, "set budget", err)
		return
	}
	if req.TotalBudget == nil {
		writeError(w, r, "set budget", core.ErrInvalidAmount)
		return
	}
	b, err := s.finance.SetBudget(r.Context(), userID(r), month, *req.TotalBudget)
	if err != nil {
		writeError(w, r, "set budget", err)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonth(r.PathValue("month"))
	if err != nil {
		writeError(w, r, "get budget", err)
		return
	}
	b, err := s.finance.GetBudget(r.Context(), userID(r), month)
	if err != nil {
		writeError(w, r, "get budget", err)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

// bodyMonth reads the optional {"month": "YYYY-MM"} body of the derived
// budget endpoints. An empty body means the current month.
func (s *Server) bodyMonth(w http.ResponseWriter, r *http.Request) (core.Month, error) {
	var req monthRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		return core.Month{}, err
	}
	return parseMonthOr(req.Month, s.finance.CurrentMonth())
}

func (s *Server) handleAutoBudget(w http.ResponseWriter, r *http.Request) {
	month, err := s.bodyMonth(w, r)
	if err != nil {
		writeError(w, r, "auto budget", err)
		return
	}
	b, err := s.finance.AutoBudget(r.Context(), userID(r), month)
	if err != nil {
		writeError(w, r, "auto budget", err)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

func (s *Server) handleBudgetPlan(w http.ResponseWriter, r *http.Request) {
	month, err := s.bodyMonth(w, r)
	if err != nil {
		writeError(w, r, "budget plan", err)
		return
	}
	plan, err := s.finance.BudgetPlan(r.Context(), userID(r), month)
	if err != nil {
		writeError(w, r, "budget plan", err)
		return
	}
	NewJSONResponse().Body(plan).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonth(r.PathValue("month"))
	if err != nil {
		writeError(w, r, "summary", err)
		return
	}
	summary, err := s.finance.Summary(r.Context(), userID(r), month)
	if err != nil {
		writeError(w, r, "summary", err)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}

// handleHistory serves ?months=N (default 6) ending at ?end=YYYY-MM.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	months, err := queryInt(q, "months", services.DefaultHistoryMonths)
	if err != nil {
		writeError(w, r, "history", err)
		return
	}
	end, err := parseMonthOr(q.Get("end"), s.finance.CurrentMonth())
	if err != nil {
		writeError(w, r, "history", err)
		return
	}
	rows, err := s.finance.History(r.Context(), userID(r), end, months)
	if err != nil {
		writeError(w, r, "history", err)
		return
	}
	NewJSONResponse().Body(rows).Write(w)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit", services.DefaultNotificationLimit)
	if err != nil {
		writeError(w, r, "notifications", err)
		return
	}
	list, err := s.finance.Notifications(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, r, "notifications", err)
		return
	}
	NewJSONResponse().Body(nonNil(list)).Write(w)
}
