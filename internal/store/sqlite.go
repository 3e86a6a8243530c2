package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store backed by a SQLite database. CommitFill runs
// inside a transaction, so the order update, trade insert, and position
// mutation land together or not at all.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id                 TEXT PRIMARY KEY,
	account_id         TEXT NOT NULL,
	symbol             TEXT NOT NULL,
	side               TEXT NOT NULL,
	type               TEXT NOT NULL,
	quantity           REAL NOT NULL,
	limit_price        REAL NOT NULL DEFAULT 0,
	stop_price         REAL NOT NULL DEFAULT 0,
	stop_loss_price    REAL NOT NULL DEFAULT 0,
	take_profit_price  REAL NOT NULL DEFAULT 0,
	time_in_force      TEXT NOT NULL,
	status             TEXT NOT NULL,
	reject_reason      TEXT NOT NULL DEFAULT '',
	filled_quantity    REAL NOT NULL DEFAULT 0,
	average_fill_price REAL NOT NULL DEFAULT 0,
	created_at         TIMESTAMP NOT NULL,
	filled_at          TIMESTAMP,
	cancelled_at       TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_account_status ON orders(account_id, status);

CREATE TABLE IF NOT EXISTS positions (
	account_id          TEXT NOT NULL,
	symbol              TEXT NOT NULL,
	quantity            REAL NOT NULL,
	average_entry_price REAL NOT NULL,
	total_cost_basis    REAL NOT NULL,
	stop_loss_price     REAL NOT NULL DEFAULT 0,
	take_profit_price   REAL NOT NULL DEFAULT 0,
	opened_at           TIMESTAMP NOT NULL,
	updated_at          TIMESTAMP NOT NULL,
	PRIMARY KEY (account_id, symbol)
);

CREATE TABLE IF NOT EXISTS trades (
	id             TEXT PRIMARY KEY,
	order_id       TEXT NOT NULL,
	account_id     TEXT NOT NULL,
	symbol         TEXT NOT NULL,
	side           TEXT NOT NULL,
	quantity       REAL NOT NULL,
	price          REAL NOT NULL,
	total_usd      REAL NOT NULL,
	commission_usd REAL NOT NULL,
	realized_pnl   REAL NOT NULL DEFAULT 0,
	executed_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_account_time ON trades(account_id, executed_at);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent commits.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const orderColumns = `id, account_id, symbol, side, type, quantity, limit_price, stop_price,
	stop_loss_price, take_profit_price, time_in_force, status, reject_reason,
	filled_quantity, average_fill_price, created_at, filled_at, cancelled_at`

// SaveOrder inserts or replaces an order record.
func (s *SQLiteStore) SaveOrder(ctx context.Context, o *domain.Order) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		orderArgs(o)...)
	if err != nil {
		return fmt.Errorf("save order %s: %w", o.ID, err)
	}
	return nil
}

// GetOrder retrieves a single order by its ID.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, enginerr.NewNotFoundError("store", "get_order", enginerr.ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

// UpdateOrder persists changes to an existing order.
func (s *SQLiteStore) UpdateOrder(ctx context.Context, o *domain.Order) error {
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET
		status = ?, reject_reason = ?, filled_quantity = ?, average_fill_price = ?,
		filled_at = ?, cancelled_at = ?
		WHERE id = ?`,
		string(o.Status), o.RejectReason, o.FilledQuantity, o.AverageFillPrice,
		nullableTime(o.FilledAt), nullableTime(o.CancelledAt), o.ID)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	if n == 0 {
		return enginerr.NewNotFoundError("store", "update_order", enginerr.ErrOrderNotFound)
	}
	return nil
}

// ListOrders returns the account's orders with the given status, newest
// first; an empty status matches all.
func (s *SQLiteStore) ListOrders(ctx context.Context, accountID string, status domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE account_id = ?`
	args := []interface{}{accountID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

const positionColumns = `account_id, symbol, quantity, average_entry_price, total_cost_basis,
	stop_loss_price, take_profit_price, opened_at, updated_at`

// GetPosition retrieves the open position for account+symbol.
func (s *SQLiteStore) GetPosition(ctx context.Context, accountID, symbol string) (*domain.Position, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE account_id = ? AND symbol = ?`,
		accountID, symbol)
	p, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return nil, enginerr.NewNotFoundError("store", "get_position", enginerr.ErrPositionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get position %s/%s: %w", accountID, symbol, err)
	}
	return p, nil
}

// ListPositions returns all open positions for the account, sorted by symbol.
func (s *SQLiteStore) ListPositions(ctx context.Context, accountID string) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE account_id = ? ORDER BY symbol`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var out []domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("list positions: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SavePosition inserts or replaces the position for account+symbol.
func (s *SQLiteStore) SavePosition(ctx context.Context, p *domain.Position) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO positions (`+positionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, positionArgs(p)...)
	if err != nil {
		return fmt.Errorf("save position %s/%s: %w", p.AccountID, p.Symbol, err)
	}
	return nil
}

// DeletePosition removes the position for account+symbol.
func (s *SQLiteStore) DeletePosition(ctx context.Context, accountID, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM positions WHERE account_id = ? AND symbol = ?`, accountID, symbol)
	if err != nil {
		return fmt.Errorf("delete position %s/%s: %w", accountID, symbol, err)
	}
	return nil
}

const tradeColumns = `id, order_id, account_id, symbol, side, quantity, price,
	total_usd, commission_usd, realized_pnl, executed_at`

// SaveTrade appends an immutable trade record.
func (s *SQLiteStore) SaveTrade(ctx context.Context, t *domain.Trade) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, tradeArgs(t)...)
	if err != nil {
		return fmt.Errorf("save trade %s: %w", t.ID, err)
	}
	return nil
}

// ListTrades returns the account's trades executed at or after since, oldest
// first. A zero since returns everything.
func (s *SQLiteStore) ListTrades(ctx context.Context, accountID string, since time.Time) ([]domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE account_id = ?`
	args := []interface{}{accountID}
	if !since.IsZero() {
		query += ` AND executed_at >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY executed_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var out []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.ID, &t.OrderID, &t.AccountID, &t.Symbol, &t.Side,
			&t.Quantity, &t.Price, &t.TotalUSD, &t.CommissionUSD, &t.RealizedPnL,
			&t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("list trades: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CommitFill persists a fill inside one transaction.
func (s *SQLiteStore) CommitFill(ctx context.Context, order *domain.Order, trade *domain.Trade, position *domain.Position, closed bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fill transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		orderArgs(order)...); err != nil {
		return fmt.Errorf("commit fill: order %s: %w", order.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, tradeArgs(trade)...); err != nil {
		return fmt.Errorf("commit fill: trade %s: %w", trade.ID, err)
	}
	if closed {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM positions WHERE account_id = ? AND symbol = ?`,
			trade.AccountID, trade.Symbol); err != nil {
			return fmt.Errorf("commit fill: close position %s/%s: %w", trade.AccountID, trade.Symbol, err)
		}
	} else if position != nil {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO positions (`+positionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, positionArgs(position)...); err != nil {
			return fmt.Errorf("commit fill: position %s/%s: %w", position.AccountID, position.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fill transaction: %w", err)
	}
	return nil
}

func orderArgs(o *domain.Order) []interface{} {
	return []interface{}{
		o.ID, o.AccountID, o.Symbol, string(o.Side), string(o.Type), o.Quantity,
		o.LimitPrice, o.StopPrice, o.StopLossPrice, o.TakeProfitPrice,
		string(o.TimeInForce), string(o.Status), o.RejectReason,
		o.FilledQuantity, o.AverageFillPrice, o.CreatedAt,
		nullableTime(o.FilledAt), nullableTime(o.CancelledAt),
	}
}

func positionArgs(p *domain.Position) []interface{} {
	return []interface{}{
		p.AccountID, p.Symbol, p.Quantity, p.AverageEntryPrice, p.TotalCostBasis,
		p.StopLossPrice, p.TakeProfitPrice, p.OpenedAt, p.UpdatedAt,
	}
}

func tradeArgs(t *domain.Trade) []interface{} {
	return []interface{}{
		t.ID, t.OrderID, t.AccountID, t.Symbol, string(t.Side), t.Quantity,
		t.Price, t.TotalUSD, t.CommissionUSD, t.RealizedPnL, t.ExecutedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var filledAt, cancelledAt sql.NullTime
	err := row.Scan(&o.ID, &o.AccountID, &o.Symbol, &o.Side, &o.Type, &o.Quantity,
		&o.LimitPrice, &o.StopPrice, &o.StopLossPrice, &o.TakeProfitPrice,
		&o.TimeInForce, &o.Status, &o.RejectReason,
		&o.FilledQuantity, &o.AverageFillPrice, &o.CreatedAt, &filledAt, &cancelledAt)
	if err != nil {
		return nil, err
	}
	if filledAt.Valid {
		t := filledAt.Time
		o.FilledAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		o.CancelledAt = &t
	}
	return &o, nil
}

func scanPosition(row rowScanner) (*domain.Position, error) {
	var p domain.Position
	err := row.Scan(&p.AccountID, &p.Symbol, &p.Quantity, &p.AverageEntryPrice,
		&p.TotalCostBasis, &p.StopLossPrice, &p.TakeProfitPrice, &p.OpenedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
