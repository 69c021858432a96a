package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finassist/internal/amqp"
	"finassist/internal/assistant"
	"finassist/internal/core"
	"finassist/internal/storage"
)

const (
	DefaultHistoryMonths     = 6
	MaxHistoryMonths         = 24
	DefaultNotificationLimit = 50

	historyConcurrency = 4
)

var (
	// ErrUnavailable reports that the record store is missing or failing.
	ErrUnavailable = errors.New("service unavailable")
	// ErrInvalidHistoryRange is returned for a history length outside 1..MaxHistoryMonths.
	ErrInvalidHistoryRange = fmt.Errorf("months must be between 1 and %d", MaxHistoryMonths)
)

// EventPublisher announces record changes. Implemented by *amqp.Client.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, event *amqp.RecordEvent) error
}

// MonthlyData is everything a summary is computed from.
type MonthlyData struct {
	Incomes  []core.Income
	Expenses []core.Expense
	Budget   *core.BudgetTarget
}

// HistoryRow is one month of the history view.
type HistoryRow struct {
	Month    core.Month      `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Budget   decimal.Decimal `json:"budget"`
}

// FinanceService owns records, budgets, summaries and derived plans. A nil
// store means no database is configured: summaries degrade and writes fail
// with ErrUnavailable.
type FinanceService struct {
	store     storage.RecordStore
	events    EventPublisher
	generator assistant.TextGenerator
	rules     []core.CategoryRule
	now       func() time.Time
	newID     func() string
}

// NewFinanceService wires the service. events and generator may be nil.
func NewFinanceService(store storage.RecordStore, events EventPublisher, generator assistant.TextGenerator) *FinanceService {
	return &FinanceService{
		store:     store,
		events:    events,
		generator: generator,
		rules:     core.DefaultCategoryRules,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Now returns the service clock.
func (s *FinanceService) Now() time.Time { return s.now() }

// CurrentMonth is the month containing the service clock.
func (s *FinanceService) CurrentMonth() core.Month { return core.MonthOf(s.now()) }

// Ready reports whether the record store answers.
func (s *FinanceService) Ready(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("%w: database connection not configured", ErrUnavailable)
	}
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// unavailable tags infrastructure failures; domain errors pass through.
func unavailable(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrConflict) || core.IsValidation(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func (s *FinanceService) requireStore() error {
	if s.store == nil {
		return fmt.Errorf("%w: database connection not configured", ErrUnavailable)
	}
	return nil
}

// FetchMonth reads a month's incomes, expenses and budget concurrently.
func (s *FinanceService) FetchMonth(ctx context.Context, userID string, month core.Month) (MonthlyData, error) {
	if err := s.requireStore(); err != nil {
		return MonthlyData{}, err
	}
	r := month.Range()
	var data MonthlyData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		incomes, err := s.store.ListIncomes(gctx, userID, r)
		data.Incomes = incomes
		return err
	})
	g.Go(func() error {
		expenses, err := s.store.ListExpenses(gctx, userID, r)
		data.Expenses = expenses
		return err
	})
	g.Go(func() error {
		b, err := s.store.GetBudget(gctx, userID, month)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		data.Budget = &b
		return nil
	})
	if err := g.Wait(); err != nil {
		return MonthlyData{}, unavailable("fetch month "+month.String(), err)
	}
	return data, nil
}

// Summary computes the month's report. Without a store it returns the
// degraded report; a failing store is an ErrUnavailable error.
func (s *FinanceService) Summary(ctx context.Context, userID string, month core.Month) (core.Summary, error) {
	if s.store == nil {
		return core.DegradedSummary(), nil
	}
	data, err := s.FetchMonth(ctx, userID, month)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(data.Incomes, data.Expenses, data.Budget), nil
}

// SummaryOrDegraded never fails; store errors are logged and replaced by
// the degraded report.
func (s *FinanceService) SummaryOrDegraded(ctx context.Context, userID string, month core.Month) core.Summary {
	summary, err := s.Summary(ctx, userID, month)
	if err != nil {
		slog.WarnContext(ctx, "Summary unavailable, using degraded summary",
			"user_id", userID, "month", month.String(), "error", err)
		return core.DegradedSummary()
	}
	return summary
}

// History returns one row per month ending at end, newest first.
func (s *FinanceService) History(ctx context.Context, userID string, end core.Month, months int) ([]HistoryRow, error) {
	if months < 1 || months > MaxHistoryMonths {
		return nil, ErrInvalidHistoryRange
	}
	if err := s.requireStore(); err != nil {
		return nil, err
	}

	rows := make([]HistoryRow, months)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(historyConcurrency)
	for i := 0; i < months; i++ {
		month := end.AddMonths(-i)
		g.Go(func() error {
			summary, err := s.Summary(gctx, userID, month)
			if err != nil {
				return err
			}
			budget := summary.RemainingBudget.Add(summary.TotalExpenses)
			rows[i] = HistoryRow{
				Month:    month,
				Income:   summary.TotalIncome,
				Expenses: summary.TotalExpenses,
				Budget:   budget,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Incomes

func (s *FinanceService) AddIncome(ctx context.Context, userID string, in core.Income) (core.Income, error) {
	if err := s.requireStore(); err != nil {
		return core.Income{}, err
	}
	in.ID = s.newID()
	in.UserID = userID
	in.Source = strings.TrimSpace(in.Source)
	in.CreatedAt = s.now()
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	if err := s.store.CreateIncome(ctx, in); err != nil {
		return core.Income{}, unavailable("add income", err)
	}
	s.publish(ctx, amqp.KindIncome, amqp.ActionCreated, userID, in.EntryDate.MonthKey())
	return in, nil
}

func (s *FinanceService) ListIncomes(ctx context.Context, userID string, month core.Month) ([]core.Income, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	incomes, err := s.store.ListIncomes(ctx, userID, month.Range())
	if err != nil {
		return nil, unavailable("list incomes", err)
	}
	return incomes, nil
}

func (s *FinanceService) UpdateIncome(ctx context.Context, userID, id string, in core.Income) (core.Income, error) {
	if err := s.requireStore(); err != nil {
		return core.Income{}, err
	}
	in.ID = id
	in.UserID = userID
	in.Source = strings.TrimSpace(in.Source)
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	prev, err := s.store.GetIncome(ctx, userID, id)
	if err != nil {
		return core.Income{}, unavailable("update income", err)
	}
	updated, err := s.store.UpdateIncome(ctx, in)
	if err != nil {
		return core.Income{}, unavailable("update income", err)
	}
	s.publishMoved(ctx, amqp.KindIncome, userID, prev.EntryDate.MonthKey(), updated.EntryDate.MonthKey())
	return updated, nil
}

// DeleteIncome removes the record and returns it.
func (s *FinanceService) DeleteIncome(ctx context.Context, userID, id string) (core.Income, error) {
	if err := s.requireStore(); err != nil {
		return core.Income{}, err
	}
	deleted, err := s.store.DeleteIncome(ctx, userID, id)
	if err != nil {
		return core.Income{}, unavailable("delete income", err)
	}
	s.publish(ctx, amqp.KindIncome, amqp.ActionDeleted, userID, deleted.EntryDate.MonthKey())
	return deleted, nil
}

// Expenses

// AddExpense stores a new expense. A missing or default category is
// inferred from the description.
func (s *FinanceService) AddExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	if err := s.requireStore(); err != nil {
		return core.Expense{}, err
	}
	e.ID = s.newID()
	e.UserID = userID
	e.Description = strings.TrimSpace(e.Description)
	e.Category = core.ResolveCategory(s.rules, e.Category, e.Description)
	e.CreatedAt = s.now()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, unavailable("add expense", err)
	}
	s.publish(ctx, amqp.KindExpense, amqp.ActionCreated, userID, e.EntryDate.MonthKey())
	return e, nil
}

func (s *FinanceService) ListExpenses(ctx context.Context, userID string, month core.Month) ([]core.Expense, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, userID, month.Range())
	if err != nil {
		return nil, unavailable("list expenses", err)
	}
	return expenses, nil
}

// UpdateExpense replaces the editable fields. The category is stored as
// given; classification only runs on creation.
func (s *FinanceService) UpdateExpense(ctx context.Context, userID, id string, e core.Expense) (core.Expense, error) {
	if err := s.requireStore(); err != nil {
		return core.Expense{}, err
	}
	e.ID = id
	e.UserID = userID
	e.Description = strings.TrimSpace(e.Description)
	if strings.TrimSpace(e.Category) == "" {
		e.Category = core.DefaultCategory
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	prev, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, unavailable("update expense", err)
	}
	updated, err := s.store.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, unavailable("update expense", err)
	}
	s.publishMoved(ctx, amqp.KindExpense, userID, prev.EntryDate.MonthKey(), updated.EntryDate.MonthKey())
	return updated, nil
}

// DeleteExpense removes the record and returns it.
func (s *FinanceService) DeleteExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	if err := s.requireStore(); err != nil {
		return core.Expense{}, err
	}
	deleted, err := s.store.DeleteExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, unavailable("delete expense", err)
	}
	s.publish(ctx, amqp.KindExpense, amqp.ActionDeleted, userID, deleted.EntryDate.MonthKey())
	return deleted, nil
}

// Budgets

// SetBudget upserts the month's budget target.
func (s *FinanceService) SetBudget(ctx context.Context, userID string, month core.Month, total decimal.Decimal) (core.BudgetTarget, error) {
	if err := s.requireStore(); err != nil {
		return core.BudgetTarget{}, err
	}
	b := core.BudgetTarget{
		ID:          s.newID(),
		UserID:      userID,
		Month:       month,
		TotalBudget: total,
		CreatedAt:   s.now(),
	}
	if err := b.Validate(); err != nil {
		return core.BudgetTarget{}, err
	}
	saved, err := s.store.UpsertBudget(ctx, b)
	if err != nil {
		return core.BudgetTarget{}, unavailable("set budget", err)
	}
	s.publish(ctx, amqp.KindBudget, amqp.ActionUpdated, userID, month)
	return saved, nil
}

// GetBudget returns the month's target or storage.ErrNotFound.
func (s *FinanceService) GetBudget(ctx context.Context, userID string, month core.Month) (core.BudgetTarget, error) {
	if err := s.requireStore(); err != nil {
		return core.BudgetTarget{}, err
	}
	b, err := s.store.GetBudget(ctx, userID, month)
	if err != nil {
		return core.BudgetTarget{}, unavailable("get budget", err)
	}
	return b, nil
}

// monthlyIncome resolves the income a derived budget is based on.
func (s *FinanceService) monthlyIncome(ctx context.Context, userID string, month core.Month) (core.Profile, decimal.Decimal, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return core.Profile{}, decimal.Zero, err
	}
	if !profile.MonthlyIncome.IsZero() {
		return profile, profile.MonthlyIncome, nil
	}
	incomes, err := s.store.ListIncomes(ctx, userID, month.Range())
	if err != nil {
		return core.Profile{}, decimal.Zero, unavailable("list incomes", err)
	}
	return profile, core.ResolveMonthlyIncome(profile, incomes), nil
}

// AutoBudget sets the month's budget to income minus the profile's savings share.
func (s *FinanceService) AutoBudget(ctx context.Context, userID string, month core.Month) (core.BudgetTarget, error) {
	if err := s.requireStore(); err != nil {
		return core.BudgetTarget{}, err
	}
	profile, income, err := s.monthlyIncome(ctx, userID, month)
	if err != nil {
		return core.BudgetTarget{}, err
	}
	total := core.AutoBudget(income, core.EffectiveSavingsRate(profile))
	return s.SetBudget(ctx, userID, month, total)
}

// BudgetPlan applies the 50/30/20 split, stores needs+wants as the month's
// budget and attaches a generated explanation.
func (s *FinanceService) BudgetPlan(ctx context.Context, userID string, month core.Month) (core.Plan, error) {
	if err := s.requireStore(); err != nil {
		return core.Plan{}, err
	}
	_, income, err := s.monthlyIncome(ctx, userID, month)
	if err != nil {
		return core.Plan{}, err
	}
	plan := core.NewPlan(month, income)
	if _, err := s.SetBudget(ctx, userID, month, plan.TotalBudget); err != nil {
		return core.Plan{}, err
	}
	plan.Explanation = s.explain(ctx, plan)
	return plan, nil
}

func (s *FinanceService) explain(ctx context.Context, plan core.Plan) string {
	if s.generator == nil {
		return core.PlanFallbackExplanation
	}
	text, err := s.generator.Generate(ctx, plan.ExplanationPrompt())
	if err != nil {
		slog.WarnContext(ctx, "Plan explanation failed, using fallback", "error", err)
		return core.PlanFallbackExplanation
	}
	if strings.TrimSpace(text) == "" {
		return core.PlanFallbackExplanation
	}
	return strings.TrimSpace(text)
}

// Profile

// Profile returns the stored profile, or defaults when none exists. An
// unset savings rate reads back as the default.
func (s *FinanceService) Profile(ctx context.Context, userID string) (core.Profile, error) {
	if err := s.requireStore(); err != nil {
		return core.Profile{}, err
	}
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.DefaultProfile(userID), nil
	}
	if err != nil {
		return core.Profile{}, unavailable("get profile", err)
	}
	p.SavingsRate = core.EffectiveSavingsRate(p)
	return p, nil
}

func (s *FinanceService) UpdateProfile(ctx context.Context, userID string, p core.Profile) (core.Profile, error) {
	if err := s.requireStore(); err != nil {
		return core.Profile{}, err
	}
	p.UserID = userID
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	saved, err := s.store.UpsertProfile(ctx, p)
	if err != nil {
		return core.Profile{}, unavailable("update profile", err)
	}
	saved.SavingsRate = core.EffectiveSavingsRate(saved)
	return saved, nil
}

// Notifications

func (s *FinanceService) Notifications(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	list, err := s.store.ListNotifications(ctx, userID, limit)
	if err != nil {
		return nil, unavailable("list notifications", err)
	}
	return list, nil
}

// RecordAlerts recomputes the month's summary and stores one notification
// per alert. It returns how many notifications were new.
func (s *FinanceService) RecordAlerts(ctx context.Context, userID string, month core.Month) (int, error) {
	summary, err := s.Summary(ctx, userID, month)
	if err != nil {
		return 0, err
	}
	if s.store == nil {
		return 0, nil
	}
	added := 0
	for _, alert := range summary.Alerts {
		ok, err := s.store.AddNotification(ctx, core.Notification{
			ID:        s.newID(),
			UserID:    userID,
			Month:     month,
			Message:   alert,
			CreatedAt: s.now(),
		})
		if err != nil {
			return added, unavailable("add notification", err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// publishMoved announces an update. A record moved to another month
// changes both months' summaries.
func (s *FinanceService) publishMoved(ctx context.Context, kind, userID string, from, to core.Month) {
	if from != to {
		s.publish(ctx, kind, amqp.ActionUpdated, userID, from)
	}
	s.publish(ctx, kind, amqp.ActionUpdated, userID, to)
}

func (s *FinanceService) publish(ctx context.Context, kind, action, userID string, month core.Month) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRecordEvent(ctx, amqp.NewRecordEvent(kind, action, userID, month)); err != nil {
		slog.WarnContext(ctx, "Failed to publish record event",
			"kind", kind,
			"action", action,
			"user_id", userID,
			"month", month.String(),
			"error", err)
	}
}
