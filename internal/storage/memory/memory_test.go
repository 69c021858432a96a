package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finassist/internal/core"
	"finassist/internal/storage"
)

func TestListExpensesFiltersByUserAndMonth(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	add := func(id, user string, d core.Date, offset time.Duration) {
		t.Helper()
		err := s.CreateExpense(ctx, core.Expense{
			ID: id, UserID: user, Amount: decimal.NewFromInt(1), Category: "Food",
			EntryDate: d, CreatedAt: base.Add(offset),
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	add("a", "u1", core.NewDate(2025, 3, 1), 0)
	add("b", "u1", core.NewDate(2025, 3, 31), time.Second)
	add("c", "u1", core.NewDate(2025, 4, 1), 2*time.Second)
	add("d", "u2", core.NewDate(2025, 3, 15), 3*time.Second)
	add("e", "u1", core.NewDate(2025, 3, 31), 4*time.Second)

	got, err := s.ListExpenses(ctx, "u1", core.NewMonth(2025, time.March).Range())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	want := []string{"a", "b", "e"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestUpdateAndDeleteAreScopedByUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	in := core.Income{ID: "i1", UserID: "u1", Amount: decimal.NewFromInt(10), Source: "Job", EntryDate: core.NewDate(2025, 1, 2)}
	if err := s.CreateIncome(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	foreign := in
	foreign.UserID = "u2"
	if _, err := s.UpdateIncome(ctx, foreign); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("foreign update err = %v", err)
	}
	if _, err := s.DeleteIncome(ctx, "u2", "i1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("foreign delete err = %v", err)
	}

	in.Amount = decimal.NewFromInt(20)
	updated, err := s.UpdateIncome(ctx, in)
	if err != nil || !updated.Amount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("update = %v, %v", updated, err)
	}
	if deleted, err := s.DeleteIncome(ctx, "u1", "i1"); err != nil || deleted.ID != "i1" {
		t.Fatalf("delete = %v, %v", deleted, err)
	}
	if _, err := s.DeleteIncome(ctx, "u1", "i1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestUpsertBudgetReplaces(t *testing.T) {
	s := New()
	ctx := context.Background()
	m := core.NewMonth(2025, time.May)
	first, _ := s.UpsertBudget(ctx, core.BudgetTarget{ID: "b1", UserID: "u", Month: m, TotalBudget: decimal.NewFromInt(100)})
	second, _ := s.UpsertBudget(ctx, core.BudgetTarget{ID: "b2", UserID: "u", Month: m, TotalBudget: decimal.NewFromInt(250)})
	if second.ID != first.ID {
		t.Fatalf("upsert created a second budget: %s vs %s", second.ID, first.ID)
	}
	got, err := s.GetBudget(ctx, "u", m)
	if err != nil || !got.TotalBudget.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("get = %v, %v", got, err)
	}
	if _, err := s.GetBudget(ctx, "u", m.Next()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing budget err = %v", err)
	}
}

func TestUsersAndNotifications(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateUser(ctx, core.User{ID: "1", Username: "ann"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, core.User{ID: "2", Username: "ann"}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate err = %v", err)
	}

	n := core.Notification{ID: "n1", UserID: "1", Month: core.NewMonth(2025, 1), Message: "x"}
	if added, _ := s.AddNotification(ctx, n); !added {
		t.Fatalf("first notification not added")
	}
	n.ID = "n2"
	if added, _ := s.AddNotification(ctx, n); added {
		t.Fatalf("duplicate notification added")
	}
}

func TestListChatMessagesKeepsLatest(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"one", "two", "three"} {
		_ = s.AppendChatMessage(ctx, core.ChatMessage{
			ID: content, UserID: "u", Role: core.RoleUser, Content: content, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	got, _ := s.ListChatMessages(ctx, "u", 2)
	if len(got) != 2 || got[0].Content != "two" || got[1].Content != "three" {
		t.Fatalf("got %+v", got)
	}
}
