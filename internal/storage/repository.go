package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finassist/internal/core"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Repository is the SQL RecordStore. It speaks either SQLite or PostgreSQL.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

var _ RecordStore = (*Repository)(nil)

// NewSQLiteRepository opens (creating if needed) the database file at
// dbPath and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, SQLiteDSN(dbPath))
}

// SQLiteDSN is the connection string NewSQLiteRepository uses for dbPath.
func SQLiteDSN(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// NewPostgresRepository connects to dsn through pgx and applies pending
// migrations.
func NewPostgresRepository(dsn string) (*Repository, error) {
	return open(Postgres, dsn)
}

func open(dialect Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if dialect == SQLite {
		// A single writer avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	return &Repository{db: db, dialect: dialect}, nil
}

func (r *Repository) Dialect() Dialect { return r.dialect }

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.dialect.rebind(query), args...)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
}

func (r *Repository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.dialect.rebind(query), args...)
}

// affectedOne maps a statement that touched no row to ErrNotFound.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Incomes

const incomeColumns = "id, user_id, amount, source, entry_date, created_at"

func scanIncome(sc interface{ Scan(...any) error }) (core.Income, error) {
	var in core.Income
	err := sc.Scan(&in.ID, &in.UserID, &in.Amount, &in.Source, &in.EntryDate, timestamp{&in.CreatedAt})
	return in, err
}

func (r *Repository) CreateIncome(ctx context.Context, in core.Income) error {
	_, err := r.exec(ctx,
		`INSERT INTO incomes (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, in.Amount, in.Source, in.EntryDate, r.dialect.timeArg(in.CreatedAt))
	if err != nil {
		return fmt.Errorf("create income: %w", err)
	}
	slog.DebugContext(ctx, "Income saved", "id", in.ID, "user_id", in.UserID, "entry_date", in.EntryDate.String())
	return nil
}

func (r *Repository) ListIncomes(ctx context.Context, userID string, dr core.DateRange) ([]core.Income, error) {
	rows, err := r.query(ctx,
		`SELECT `+incomeColumns+` FROM incomes
		 WHERE user_id = ? AND entry_date >= ? AND entry_date < ?
		 ORDER BY entry_date ASC, created_at ASC`,
		userID, dr.From, dr.To)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	out := []core.Income{}
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *Repository) GetIncome(ctx context.Context, userID, id string) (core.Income, error) {
	row := r.queryRow(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE id = ? AND user_id = ?`, id, userID)
	in, err := scanIncome(row)
	if err != nil {
		return core.Income{}, fmt.Errorf("get income %s: %w", id, notFound(err))
	}
	return in, nil
}

func (r *Repository) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	row := r.queryRow(ctx,
		`UPDATE incomes SET amount = ?, source = ?, entry_date = ?
		 WHERE id = ? AND user_id = ?
		 RETURNING `+incomeColumns,
		in.Amount, in.Source, in.EntryDate, in.ID, in.UserID)
	updated, err := scanIncome(row)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income %s: %w", in.ID, notFound(err))
	}
	return updated, nil
}

func (r *Repository) DeleteIncome(ctx context.Context, userID, id string) (core.Income, error) {
	row := r.queryRow(ctx,
		`DELETE FROM incomes WHERE id = ? AND user_id = ? RETURNING `+incomeColumns, id, userID)
	deleted, err := scanIncome(row)
	if err != nil {
		return core.Income{}, fmt.Errorf("delete income %s: %w", id, notFound(err))
	}
	return deleted, nil
}

// Expenses

const expenseColumns = "id, user_id, amount, category, description, entry_date, created_at"

func scanExpense(sc interface{ Scan(...any) error }) (core.Expense, error) {
	var e core.Expense
	err := sc.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Description, &e.EntryDate, timestamp{&e.CreatedAt})
	return e, err
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.exec(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount, e.Category, e.Description, e.EntryDate, r.dialect.timeArg(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	slog.DebugContext(ctx, "Expense saved",
		"id", e.ID,
		"user_id", e.UserID,
		"category", e.Category,
		"entry_date", e.EntryDate.String())
	return nil
}

func (r *Repository) ListExpenses(ctx context.Context, userID string, dr core.DateRange) ([]core.Expense, error) {
	rows, err := r.query(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE user_id = ? AND entry_date >= ? AND entry_date < ?
		 ORDER BY entry_date ASC, created_at ASC`,
		userID, dr.From, dr.To)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.queryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, notFound(err))
	}
	return e, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	row := r.queryRow(ctx,
		`UPDATE expenses SET amount = ?, category = ?, description = ?, entry_date = ?
		 WHERE id = ? AND user_id = ?
		 RETURNING `+expenseColumns,
		e.Amount, e.Category, e.Description, e.EntryDate, e.ID, e.UserID)
	updated, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", e.ID, notFound(err))
	}
	return updated, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.queryRow(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ? RETURNING `+expenseColumns, id, userID)
	deleted, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, fmt.Errorf("delete expense %s: %w", id, notFound(err))
	}
	return deleted, nil
}

// Budgets

const budgetColumns = "id, user_id, month, total_budget, created_at"

func scanBudget(sc interface{ Scan(...any) error }) (core.BudgetTarget, error) {
	var b core.BudgetTarget
	err := sc.Scan(&b.ID, &b.UserID, &b.Month, &b.TotalBudget, timestamp{&b.CreatedAt})
	return b, err
}

func (r *Repository) UpsertBudget(ctx context.Context, b core.BudgetTarget) (core.BudgetTarget, error) {
	row := r.queryRow(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, month) DO UPDATE SET total_budget = excluded.total_budget
		 RETURNING `+budgetColumns,
		b.ID, b.UserID, b.Month, b.TotalBudget, r.dialect.timeArg(b.CreatedAt))
	saved, err := scanBudget(row)
	if err != nil {
		return core.BudgetTarget{}, fmt.Errorf("upsert budget %s: %w", b.Month, err)
	}
	slog.DebugContext(ctx, "Budget saved", "user_id", saved.UserID, "month", saved.Month.String())
	return saved, nil
}

func (r *Repository) GetBudget(ctx context.Context, userID string, month core.Month) (core.BudgetTarget, error) {
	row := r.queryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND month = ?`,
		userID, month)
	b, err := scanBudget(row)
	if err != nil {
		return core.BudgetTarget{}, fmt.Errorf("get budget %s: %w", month, notFound(err))
	}
	return b, nil
}

// Profiles

func (r *Repository) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	p := core.Profile{UserID: userID}
	err := r.queryRow(ctx,
		`SELECT monthly_income, savings_rate FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.MonthlyIncome, &p.SavingsRate)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", notFound(err))
	}
	return p, nil
}

func (r *Repository) UpsertProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	saved := core.Profile{UserID: p.UserID}
	err := r.queryRow(ctx,
		`INSERT INTO profiles (user_id, monthly_income, savings_rate) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   monthly_income = excluded.monthly_income,
		   savings_rate = excluded.savings_rate
		 RETURNING monthly_income, savings_rate`,
		p.UserID, p.MonthlyIncome, p.SavingsRate).
		Scan(&saved.MonthlyIncome, &saved.SavingsRate)
	if err != nil {
		return core.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}
	return saved, nil
}

// Users

func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.exec(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, r.dialect.timeArg(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %q: %w", u.Username, ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User created", "user_id", u.ID)
	return nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := r.queryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, timestamp{&u.CreatedAt})
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", notFound(err))
	}
	return u, nil
}

// Chat

func (r *Repository) AppendChatMessage(ctx context.Context, m core.ChatMessage) error {
	_, err := r.exec(ctx,
		`INSERT INTO chat_messages (id, user_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Role, m.Content, r.dialect.timeArg(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

func (r *Repository) ListChatMessages(ctx context.Context, userID string, limit int) ([]core.ChatMessage, error) {
	rows, err := r.query(ctx,
		`SELECT id, user_id, role, content, created_at FROM (
		   SELECT id, user_id, role, content, created_at FROM chat_messages
		   WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
		 ) recent ORDER BY created_at ASC`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	out := []core.ChatMessage{}
	for rows.Next() {
		var m core.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, timestamp{&m.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Notifications

func (r *Repository) AddNotification(ctx context.Context, n core.Notification) (bool, error) {
	err := affectedOne(r.exec(ctx,
		`INSERT INTO notifications (id, user_id, month, message, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, month, message) DO NOTHING`,
		n.ID, n.UserID, n.Month, n.Message, r.dialect.timeArg(n.CreatedAt)))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("add notification: %w", err)
	}
	return true, nil
}

func (r *Repository) ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	rows, err := r.query(ctx,
		`SELECT id, user_id, month, message, created_at FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []core.Notification{}
	for rows.Next() {
		var n core.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Month, &n.Message, timestamp{&n.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
