// Package history records OCEAN balance and pool-share snapshots in SQLite so
// the frontend can chart an account's position over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/betbot/goocean/internal/market"
)

type BalanceSnapshot struct {
	Account string    `json:"account"`
	Balance float64   `json:"balance"`
	TS      time.Time `json:"ts"`
}

type PoolShareSnapshot struct {
	Account          string    `json:"account"`
	PoolAddress      string    `json:"pool_address"`
	DataAssetID      string    `json:"data_asset_id"`
	Shares           float64   `json:"shares"`
	TotalPoolSupply  float64   `json:"total_pool_supply"`
	SharesPercentage float64   `json:"shares_percentage"`
	TS               time.Time `json:"ts"`
}

// Recorder owns the history database.
type Recorder struct {
	db *sql.DB
}

func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Recorder{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS balance_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account TEXT NOT NULL,
	balance REAL NOT NULL,
	ts TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_balance_account_ts ON balance_snapshots(account, ts);

CREATE TABLE IF NOT EXISTS pool_share_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account TEXT NOT NULL,
	pool_address TEXT NOT NULL,
	data_asset_id TEXT NOT NULL,
	shares REAL NOT NULL,
	total_pool_supply REAL NOT NULL,
	shares_percentage REAL NOT NULL,
	ts TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pool_share_account_ts ON pool_share_snapshots(account, ts);
`)
	if err != nil {
		return fmt.Errorf("migrate history db: %w", err)
	}
	return nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

func (r *Recorder) RecordBalance(ctx context.Context, account string, balance float64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO balance_snapshots (account, balance, ts)
VALUES (?,?,?)
`, account, balance, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert balance: %w", err)
	}
	return nil
}

func (r *Recorder) RecordPoolShare(ctx context.Context, account string, record market.PoolShareRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO pool_share_snapshots (account, pool_address, data_asset_id, shares, total_pool_supply, shares_percentage, ts)
VALUES (?,?,?,?,?,?,?)
`, account, record.PoolAddress, record.DID, record.Shares, record.TotalPoolSupply,
		record.SharesPercentage, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert pool share: %w", err)
	}
	return nil
}

// BalanceHistory returns the most recent snapshots, newest first.
func (r *Recorder) BalanceHistory(ctx context.Context, account string, limit int) ([]BalanceSnapshot, error) {
	if limit <= 0 || limit > 2000 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT account, balance, ts
FROM balance_snapshots
WHERE account=?
ORDER BY ts DESC
LIMIT ?
`, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalanceSnapshot
	for rows.Next() {
		var (
			snap BalanceSnapshot
			ts   string
		)
		if err := rows.Scan(&snap.Account, &snap.Balance, &ts); err != nil {
			return nil, err
		}
		snap.TS, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// PoolShareHistory returns the most recent snapshots for one pool, newest
// first. An empty poolAddress returns every pool of the account.
func (r *Recorder) PoolShareHistory(ctx context.Context, account, poolAddress string, limit int) ([]PoolShareSnapshot, error) {
	if limit <= 0 || limit > 2000 {
		limit = 200
	}
	query := `
SELECT account, pool_address, data_asset_id, shares, total_pool_supply, shares_percentage, ts
FROM pool_share_snapshots
WHERE account=?`
	args := []interface{}{account}
	if poolAddress != "" {
		query += ` AND pool_address=?`
		args = append(args, poolAddress)
	}
	query += `
ORDER BY ts DESC
LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PoolShareSnapshot
	for rows.Next() {
		var (
			snap PoolShareSnapshot
			ts   string
		)
		if err := rows.Scan(&snap.Account, &snap.PoolAddress, &snap.DataAssetID,
			&snap.Shares, &snap.TotalPoolSupply, &snap.SharesPercentage, &ts); err != nil {
			return nil, err
		}
		snap.TS, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, snap)
	}
	return out, rows.Err()
}
