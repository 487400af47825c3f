package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dyike/bestfour/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

const dateLayout = "2006-01-02"

// Store keeps complete months of exchange history in a local sqlite file.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS months (
    source TEXT NOT NULL,
    code TEXT NOT NULL,
    year INTEGER NOT NULL,
    month INTEGER NOT NULL,
    stat TEXT,
    fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (source, code, year, month)
);

CREATE TABLE IF NOT EXISTS daily_prices (
    source TEXT NOT NULL,
    code TEXT NOT NULL,
    date TEXT NOT NULL,
    year INTEGER NOT NULL,
    month INTEGER NOT NULL,
    capacity INTEGER NOT NULL,
    turnover INTEGER NOT NULL,
    open TEXT,
    high TEXT,
    low TEXT,
    close TEXT,
    change TEXT NOT NULL,
    txn INTEGER NOT NULL,
    PRIMARY KEY (source, code, date),
    FOREIGN KEY (source, code, year, month)
        REFERENCES months(source, code, year, month) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_daily_prices_month ON daily_prices(source, code, year, month);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// LoadMonth returns the stored month and whether it was present.
func (s *Store) LoadMonth(ctx context.Context, source, code string, year, month int) (*models.MonthData, bool, error) {
	var stat sql.NullString
	err := s.db.QueryRowContext(ctx, `
SELECT stat FROM months
WHERE source = ? AND code = ? AND year = ? AND month = ?
`, source, code, year, month).Scan(&stat)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get month: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT date, capacity, turnover, open, high, low, close, change, txn
FROM daily_prices
WHERE source = ? AND code = ? AND year = ? AND month = ?
ORDER BY date ASC
`, source, code, year, month)
	if err != nil {
		return nil, false, fmt.Errorf("list daily prices: %w", err)
	}
	defer rows.Close()

	result := &models.MonthData{
		Code:   code,
		Year:   year,
		Month:  month,
		Source: source,
		Stat:   stat.String,
		Data:   []models.DailyData{},
	}
	for rows.Next() {
		var (
			d    models.DailyData
			date string
		)
		if err := rows.Scan(&date, &d.Capacity, &d.Turnover, &d.Open, &d.High, &d.Low, &d.Close, &d.Change, &d.Transaction); err != nil {
			return nil, false, fmt.Errorf("scan daily price: %w", err)
		}
		if d.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, false, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		result.Data = append(result.Data, d)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("list daily prices rows: %w", err)
	}
	return result, true, nil
}

// SaveMonth replaces any stored copy of the month.
func (s *Store) SaveMonth(ctx context.Context, m *models.MonthData) error {
	if m == nil {
		return fmt.Errorf("month is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Pragmas only reach the first pooled connection, so the cascade is not
	// relied upon here.
	for _, table := range []string{"daily_prices", "months"} {
		_, err = tx.ExecContext(ctx, `DELETE FROM `+table+`
WHERE source = ? AND code = ? AND year = ? AND month = ?
`, m.Source, m.Code, m.Year, m.Month)
		if err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO months (source, code, year, month, stat)
VALUES (?, ?, ?, ?, ?)
`, m.Source, m.Code, m.Year, m.Month, m.Stat)
	if err != nil {
		return fmt.Errorf("insert month: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO daily_prices (source, code, date, year, month, capacity, turnover, open, high, low, close, change, txn)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare daily price insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range m.Data {
		_, err := stmt.ExecContext(ctx,
			m.Source, m.Code, d.Date.Format(dateLayout), m.Year, m.Month,
			d.Capacity, d.Turnover,
			nullable(d.Open), nullable(d.High), nullable(d.Low), nullable(d.Close),
			d.Change.String(), d.Transaction)
		if err != nil {
			return fmt.Errorf("insert daily price %s: %w", d.Date.Format(dateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit month: %w", err)
	}
	return nil
}

func nullable(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}
