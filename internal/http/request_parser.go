// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for decoding request bodies and reading
// month and integer parameters from paths and query strings.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"finassist/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed requests that are not domain validation errors.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeJSON reads a single JSON document of at most maxBodyBytes into dst.
// Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, false)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF) && optional:
			return nil
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		case core.IsValidation(err):
			return err
		default:
			return badRequest("invalid JSON body")
		}
	}
	return nil
}

// incomeRequest accepts the entry date as either "date" or "entry_date".
type incomeRequest struct {
	Amount    *decimal.Decimal `json:"amount"`
	Source    string           `json:"source"`
	Date      core.Date        `json:"date"`
	EntryDate core.Date        `json:"entry_date"`
}

func (req incomeRequest) toIncome(today core.Date) (core.Income, error) {
	if req.Amount == nil {
		return core.Income{}, core.ErrInvalidAmount
	}
	return core.Income{
		Amount:    *req.Amount,
		Source:    sanitizeInput(req.Source),
		EntryDate: pickDate(req.EntryDate, req.Date, today),
	}, nil
}

type expenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Date        core.Date        `json:"date"`
	EntryDate   core.Date        `json:"entry_date"`
}

func (req expenseRequest) toExpense(today core.Date) (core.Expense, error) {
	if req.Amount == nil {
		return core.Expense{}, core.ErrInvalidAmount
	}
	return core.Expense{
		Amount:      *req.Amount,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		EntryDate:   pickDate(req.EntryDate, req.Date, today),
	}, nil
}

type budgetRequest struct {
	Month       string           `json:"month"`
	TotalBudget *decimal.Decimal `json:"total_budget"`
}

// monthRequest is the optional body of the derived-budget endpoints.
type monthRequest struct {
	Month string `json:"month"`
}

type profileRequest struct {
	MonthlyIncome *decimal.Decimal `json:"monthly_income"`
	SavingsRate   *decimal.Decimal `json:"savings_rate"`
}

func (req profileRequest) toProfile() core.Profile {
	var p core.Profile
	if req.MonthlyIncome != nil {
		p.MonthlyIncome = *req.MonthlyIncome
	}
	if req.SavingsRate != nil {
		p.SavingsRate = *req.SavingsRate
	}
	return p
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// chatRequest accepts "message" or, from the generate alias, "prompt".
type chatRequest struct {
	Message string `json:"message"`
	Prompt  string `json:"prompt"`
}

func (req chatRequest) text() string {
	if strings.TrimSpace(req.Message) != "" {
		return req.Message
	}
	return req.Prompt
}

func pickDate(candidates ...core.Date) core.Date {
	for _, d := range candidates {
		if !d.IsZero() {
			return d
		}
	}
	return core.Date{}
}

// parseMonthOr parses a YYYY-MM value, falling back to def when empty.
func parseMonthOr(value string, def core.Month) (core.Month, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	return core.ParseMonth(value)
}

// queryInt reads a positive integer query parameter, falling back to def
// when absent.
func queryInt(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", key)
	}
	return n, nil
}
