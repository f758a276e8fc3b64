package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"NewsSentinel/internal/model"
)

// SQLiteRecorder persists the audit trail to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps :memory: databases shared across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS news_verdicts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			article_id TEXT,
			headline   TEXT,
			symbol     TEXT,
			accepted   INTEGER NOT NULL,
			stage      TEXT,
			sentiment  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdicts_ts ON news_verdicts(timestamp)`,

		`CREATE TABLE IF NOT EXISTS entries (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			headline  TEXT,
			rsi       REAL,
			notional  REAL,
			outcome   TEXT,
			order_id  TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_ts ON entries(timestamp)`,

		`CREATE TABLE IF NOT EXISTS exits (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			rule        TEXT,
			reason      TEXT,
			fraction    REAL,
			qty         REAL,
			entry_price REAL,
			price       REAL,
			order_id    TEXT,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exits_ts ON exits(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().Unix()
	}
	return t.Unix()
}

func (r *SQLiteRecorder) RecordVerdict(v *model.NewsVerdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO news_verdicts
		(timestamp, article_id, headline, symbol, accepted, stage, sentiment)
		VALUES (?,?,?,?,?,?,?)`,
		unix(v.Timestamp), v.ArticleID, v.Headline, v.Symbol, v.Accepted, v.Stage, v.Sentiment,
	)
	return err
}

func (r *SQLiteRecorder) RecordEntry(e *model.EntryResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO entries
		(timestamp, symbol, headline, rsi, notional, outcome, order_id, error)
		VALUES (?,?,?,?,?,?,?,?)`,
		unix(e.Timestamp), e.Symbol, e.Headline, e.RSI, e.Notional,
		string(e.Outcome), e.OrderID, errText(e.Err),
	)
	return err
}

func (r *SQLiteRecorder) RecordExit(e *model.ExitEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO exits
		(timestamp, symbol, rule, reason, fraction, qty, entry_price, price, order_id, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		unix(e.Timestamp), e.Symbol, e.Rule, e.Reason, e.Fraction, e.Qty,
		e.EntryPrice, e.Price, e.OrderID, errText(e.Err),
	)
	return err
}

// Summary counts verdicts, entries and exits recorded at or after since.
func (r *SQLiteRecorder) Summary(since time.Time) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{Since: since}
	ts := since.Unix()
	queries := []struct {
		dst   *int
		query string
		args  []any
	}{
		{&s.NewsSeen, `SELECT COUNT(*) FROM news_verdicts WHERE timestamp >= ?`, nil},
		{&s.NewsAccepted, `SELECT COUNT(*) FROM news_verdicts WHERE timestamp >= ? AND accepted = 1`, nil},
		{&s.EntriesSent, `SELECT COUNT(*) FROM entries WHERE timestamp >= ? AND outcome = ?`, []any{string(model.EntrySubmitted)}},
		{&s.EntriesSkipped, `SELECT COUNT(*) FROM entries WHERE timestamp >= ? AND outcome = ?`, []any{string(model.EntrySkipped)}},
		{&s.Exits, `SELECT COUNT(*) FROM exits WHERE timestamp >= ?`, nil},
		{&s.ExitsFailed, `SELECT COUNT(*) FROM exits WHERE timestamp >= ? AND error != ''`, nil},
	}
	for _, q := range queries {
		args := append([]any{ts}, q.args...)
		if err := r.db.QueryRow(q.query, args...).Scan(q.dst); err != nil {
			return Summary{}, fmt.Errorf("summary: %w", err)
		}
	}
	return s, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
