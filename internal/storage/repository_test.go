package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finassist/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createUser(t *testing.T, repo *Repository, name string) core.User {
	t.Helper()
	u := core.User{ID: uuid.NewString(), Username: name, PasswordHash: "x", CreatedAt: time.Now()}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y < ?"
	if got := SQLite.rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %s", got)
	}
	if got := Postgres.rebind(q); got != "SELECT a FROM t WHERE x = $1 AND y < $2" {
		t.Fatalf("postgres rebind = %s", got)
	}
}

func TestSQLiteExpensesMonthRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "alice")

	created := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	dates := []core.Date{
		core.NewDate(2025, 1, 31),
		core.NewDate(2025, 2, 1),
		core.NewDate(2025, 2, 28),
		core.NewDate(2025, 3, 1),
	}
	for i, d := range dates {
		err := repo.CreateExpense(ctx, core.Expense{
			ID:        uuid.NewString(),
			UserID:    u.ID,
			Amount:    decimal.RequireFromString("12.50"),
			Category:  "Food",
			EntryDate: d,
			CreatedAt: created.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	got, err := repo.ListExpenses(ctx, u.ID, core.NewMonth(2025, time.February).Range())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 expenses in February, got %d", len(got))
	}
	if got[0].EntryDate != core.NewDate(2025, 2, 1) {
		t.Fatalf("expected oldest first, got %s", got[0].EntryDate)
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("amount = %s", got[0].Amount)
	}
	if !got[0].CreatedAt.Equal(created.Add(time.Second)) {
		t.Fatalf("created_at = %s", got[0].CreatedAt)
	}
}

func TestSQLiteUpdateDeleteScopedByUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := createUser(t, repo, "owner")
	other := createUser(t, repo, "other")

	in := core.Income{
		ID: uuid.NewString(), UserID: owner.ID, Amount: decimal.NewFromInt(100),
		Source: "Salary", EntryDate: core.NewDate(2025, 5, 1), CreatedAt: time.Now(),
	}
	if err := repo.CreateIncome(ctx, in); err != nil {
		t.Fatalf("create income: %v", err)
	}

	if got, err := repo.GetIncome(ctx, owner.ID, in.ID); err != nil || got.Source != "Salary" {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if _, err := repo.GetIncome(ctx, other.ID, in.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get err = %v", err)
	}

	foreign := in
	foreign.UserID = other.ID
	if _, err := repo.UpdateIncome(ctx, foreign); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update err = %v", err)
	}

	in.Source = "Bonus"
	updated, err := repo.UpdateIncome(ctx, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Source != "Bonus" || updated.EntryDate != in.EntryDate {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := repo.DeleteIncome(ctx, other.ID, in.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete err = %v", err)
	}
	deleted, err := repo.DeleteIncome(ctx, owner.ID, in.ID)
	if err != nil || deleted.EntryDate != in.EntryDate {
		t.Fatalf("delete = %+v, %v", deleted, err)
	}
}

func TestSQLiteBudgetUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "bob")
	m := core.NewMonth(2025, time.June)

	first, err := repo.UpsertBudget(ctx, core.BudgetTarget{
		ID: uuid.NewString(), UserID: u.ID, Month: m, TotalBudget: decimal.NewFromInt(1000), CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := repo.UpsertBudget(ctx, core.BudgetTarget{
		ID: uuid.NewString(), UserID: u.ID, Month: m, TotalBudget: decimal.NewFromInt(1400), CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert should keep the original row")
	}
	got, err := repo.GetBudget(ctx, u.ID, m)
	if err != nil || !got.TotalBudget.Equal(decimal.NewFromInt(1400)) || got.Month != m {
		t.Fatalf("get budget = %+v, %v", got, err)
	}
	if _, err := repo.GetBudget(ctx, u.ID, m.Next()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing budget err = %v", err)
	}
}

func TestSQLiteUsersProfilesChatNotifications(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "carol")

	dup := core.User{ID: uuid.NewString(), Username: "carol", PasswordHash: "y", CreatedAt: time.Now()}
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate user err = %v", err)
	}
	if _, err := repo.GetUserByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user err = %v", err)
	}

	if _, err := repo.GetProfile(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing profile err = %v", err)
	}
	p, err := repo.UpsertProfile(ctx, core.Profile{UserID: u.ID, MonthlyIncome: decimal.NewFromInt(3000), SavingsRate: decimal.RequireFromString("0.3")})
	if err != nil || !p.SavingsRate.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("upsert profile = %+v, %v", p, err)
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"hi", "hello", "how much?"} {
		err := repo.AppendChatMessage(ctx, core.ChatMessage{
			ID: uuid.NewString(), UserID: u.ID, Role: core.RoleUser, Content: content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("append chat: %v", err)
		}
	}
	msgs, err := repo.ListChatMessages(ctx, u.ID, 2)
	if err != nil || len(msgs) != 2 || msgs[0].Content != "hello" || msgs[1].Content != "how much?" {
		t.Fatalf("chat = %+v, %v", msgs, err)
	}

	n := core.Notification{ID: uuid.NewString(), UserID: u.ID, Month: core.NewMonth(2025, 1), Message: core.AlertExceedBudget, CreatedAt: base}
	if added, err := repo.AddNotification(ctx, n); err != nil || !added {
		t.Fatalf("add notification = %v, %v", added, err)
	}
	n.ID = uuid.NewString()
	if added, err := repo.AddNotification(ctx, n); err != nil || added {
		t.Fatalf("duplicate notification = %v, %v", added, err)
	}
	list, err := repo.ListNotifications(ctx, u.ID, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("notifications = %+v, %v", list, err)
	}
}

func TestMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo.Close()
	v, dirty, err := MigrationVersion(SQLite, path)
	if err != nil || dirty || v != 1 {
		t.Fatalf("version = %d dirty=%v err=%v", v, dirty, err)
	}
}
