// Package storage defines the record store ports and their SQL implementation
// backed by either SQLite or PostgreSQL.
package storage

import (
	"context"
	"errors"

	"finassist/internal/core"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a uniqueness constraint is violated.
	ErrConflict = errors.New("record already exists")
)

// Ports consumed by the services layer.
type (
	IncomeStore interface {
		CreateIncome(ctx context.Context, in core.Income) error
		// ListIncomes returns the user's incomes dated inside r, oldest first.
		ListIncomes(ctx context.Context, userID string, r core.DateRange) ([]core.Income, error)
		GetIncome(ctx context.Context, userID, id string) (core.Income, error)
		UpdateIncome(ctx context.Context, in core.Income) (core.Income, error)
		// DeleteIncome removes the record and returns it.
		DeleteIncome(ctx context.Context, userID, id string) (core.Income, error)
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) error
		// ListExpenses returns the user's expenses dated inside r, oldest first.
		ListExpenses(ctx context.Context, userID string, r core.DateRange) ([]core.Expense, error)
		GetExpense(ctx context.Context, userID, id string) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		// DeleteExpense removes the record and returns it.
		DeleteExpense(ctx context.Context, userID, id string) (core.Expense, error)
	}

	BudgetStore interface {
		// UpsertBudget replaces the target for (user, month) if one exists.
		UpsertBudget(ctx context.Context, b core.BudgetTarget) (core.BudgetTarget, error)
		GetBudget(ctx context.Context, userID string, month core.Month) (core.BudgetTarget, error)
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, userID string) (core.Profile, error)
		UpsertProfile(ctx context.Context, p core.Profile) (core.Profile, error)
	}

	UserStore interface {
		// CreateUser fails with ErrConflict when the username is taken.
		CreateUser(ctx context.Context, u core.User) error
		GetUserByUsername(ctx context.Context, username string) (core.User, error)
	}

	ChatStore interface {
		AppendChatMessage(ctx context.Context, m core.ChatMessage) error
		// ListChatMessages returns the latest limit messages, oldest first.
		ListChatMessages(ctx context.Context, userID string, limit int) ([]core.ChatMessage, error)
	}

	NotificationStore interface {
		// AddNotification reports whether the notification was new.
		AddNotification(ctx context.Context, n core.Notification) (bool, error)
		// ListNotifications returns the latest limit notifications, newest first.
		ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error)
	}

	// RecordStore aggregates every port. Implementations are safe for
	// concurrent use.
	RecordStore interface {
		IncomeStore
		ExpenseStore
		BudgetStore
		ProfileStore
		UserStore
		ChatStore
		NotificationStore
		Ping(ctx context.Context) error
		Close() error
	}
)
