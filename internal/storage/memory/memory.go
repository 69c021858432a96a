// Package memory is an in-process RecordStore used by tests and by the
// "memory" backend. Data does not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"finassist/internal/core"
	"finassist/internal/storage"
)

type Store struct {
	mu            sync.Mutex
	users         map[string]core.User // by username
	profiles      map[string]core.Profile
	incomes       []core.Income
	expenses      []core.Expense
	budgets       map[budgetKey]core.BudgetTarget
	chat          []core.ChatMessage
	notifications []core.Notification
}

type budgetKey struct {
	userID string
	month  core.Month
}

var _ storage.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    map[string]core.User{},
		profiles: map[string]core.Profile{},
		budgets:  map[budgetKey]core.BudgetTarget{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreateIncome(_ context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes = append(s.incomes, in)
	return nil
}

func (s *Store) ListIncomes(_ context.Context, userID string, r core.DateRange) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Income{}
	for _, in := range s.incomes {
		if in.UserID == userID && r.Contains(in.EntryDate) {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return older(out[i].EntryDate, out[j].EntryDate, out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano())
	})
	return out, nil
}

func (s *Store) GetIncome(_ context.Context, userID, id string) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.incomes {
		if cur.ID == id && cur.UserID == userID {
			return cur, nil
		}
	}
	return core.Income{}, fmt.Errorf("get income %s: %w", id, storage.ErrNotFound)
}

func (s *Store) UpdateIncome(_ context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.incomes {
		if cur.ID == in.ID && cur.UserID == in.UserID {
			cur.Amount, cur.Source, cur.EntryDate = in.Amount, in.Source, in.EntryDate
			s.incomes[i] = cur
			return cur, nil
		}
	}
	return core.Income{}, fmt.Errorf("update income %s: %w", in.ID, storage.ErrNotFound)
}

func (s *Store) DeleteIncome(_ context.Context, userID, id string) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.incomes {
		if cur.ID == id && cur.UserID == userID {
			s.incomes = append(s.incomes[:i], s.incomes[i+1:]...)
			return cur, nil
		}
	}
	return core.Income{}, fmt.Errorf("delete income %s: %w", id, storage.ErrNotFound)
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, userID string, r core.DateRange) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.UserID == userID && r.Contains(e.EntryDate) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return older(out[i].EntryDate, out[j].EntryDate, out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano())
	})
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, userID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.expenses {
		if cur.ID == id && cur.UserID == userID {
			return cur, nil
		}
	}
	return core.Expense{}, fmt.Errorf("get expense %s: %w", id, storage.ErrNotFound)
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.expenses {
		if cur.ID == e.ID && cur.UserID == e.UserID {
			cur.Amount, cur.Category, cur.Description, cur.EntryDate = e.Amount, e.Category, e.Description, e.EntryDate
			s.expenses[i] = cur
			return cur, nil
		}
	}
	return core.Expense{}, fmt.Errorf("update expense %s: %w", e.ID, storage.ErrNotFound)
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.expenses {
		if cur.ID == id && cur.UserID == userID {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return cur, nil
		}
	}
	return core.Expense{}, fmt.Errorf("delete expense %s: %w", id, storage.ErrNotFound)
}

func (s *Store) UpsertBudget(_ context.Context, b core.BudgetTarget) (core.BudgetTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := budgetKey{b.UserID, b.Month}
	if cur, ok := s.budgets[key]; ok {
		cur.TotalBudget = b.TotalBudget
		s.budgets[key] = cur
		return cur, nil
	}
	s.budgets[key] = b
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, userID string, month core.Month) (core.BudgetTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[budgetKey{userID, month}]
	if !ok {
		return core.BudgetTarget{}, fmt.Errorf("get budget %s: %w", month, storage.ErrNotFound)
	}
	return b, nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, fmt.Errorf("get profile: %w", storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) UpsertProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return p, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return fmt.Errorf("create user %q: %w", u.Username, storage.ErrConflict)
	}
	s.users[u.Username] = u
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return core.User{}, fmt.Errorf("get user: %w", storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) AppendChatMessage(_ context.Context, m core.ChatMessage) error {
	if strings.TrimSpace(m.Role) == "" {
		return fmt.Errorf("append chat message: empty role")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, m)
	return nil
}

func (s *Store) ListChatMessages(_ context.Context, userID string, limit int) ([]core.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.ChatMessage{}
	for _, m := range s.chat {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *Store) AddNotification(_ context.Context, n core.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.notifications {
		if cur.UserID == n.UserID && cur.Month == n.Month && cur.Message == n.Message {
			return false, nil
		}
	}
	s.notifications = append(s.notifications, n)
	return true, nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, limit int) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Notification{}
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if n := s.notifications[i]; n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// older orders records by entry date, then insertion time.
func older(a, b core.Date, createdA, createdB int64) bool {
	if !a.Equal(b.Time) {
		return a.Before(b.Time)
	}
	return createdA < createdB
}
