package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/tradesense/indicators"
	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/signals"
)

// SQLStore is a Repository on sqlite3 or postgres.
type SQLStore struct {
	db       *sqlx.DB
	maxItems int
}

// Open connects, creates the schema and returns a store keeping at most
// maxItems signals (DefaultMaxItems when <= 0).
func Open(driver, dsn string, maxItems int) (*SQLStore, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("history: unsupported driver %q (want sqlite3|postgres)", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("history: connect %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// one writer; also keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
	}

	s, err := New(db, maxItems)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and ensures the schema exists.
func New(db *sqlx.DB, maxItems int) (*SQLStore, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &SQLStore{db: db, maxItems: maxItems}, nil
}

type row struct {
	ID         string  `db:"id"`
	Pair       string  `db:"pair"`
	Direction  string  `db:"direction"`
	Confidence float64 `db:"confidence"`
	Rationale  string  `db:"rationale"`
	Snapshot   string  `db:"snapshot"`
	CreatedAt  int64   `db:"created_at"`
}

func toRow(s signals.Signal) (row, error) {
	rationale, err := json.Marshal(s.Rationale)
	if err != nil {
		return row{}, err
	}
	snap, err := json.Marshal(s.Snapshot)
	if err != nil {
		return row{}, err
	}
	return row{
		ID:         s.ID,
		Pair:       s.Pair.String(),
		Direction:  string(s.Direction),
		Confidence: s.Confidence,
		Rationale:  string(rationale),
		Snapshot:   string(snap),
		CreatedAt:  s.CreatedAt.UnixNano(),
	}, nil
}

func (r row) signal() (signals.Signal, error) {
	pair, err := market.ParsePair(r.Pair)
	if err != nil {
		return signals.Signal{}, err
	}
	dir, err := signals.ParseDirection(r.Direction)
	if err != nil {
		return signals.Signal{}, err
	}
	s := signals.Signal{
		ID:         r.ID,
		Pair:       pair,
		Direction:  dir,
		Confidence: r.Confidence,
		CreatedAt:  time.Unix(0, r.CreatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(r.Rationale), &s.Rationale); err != nil {
		return signals.Signal{}, fmt.Errorf("rationale: %w", err)
	}
	var snap indicators.Snapshot
	if err := json.Unmarshal([]byte(r.Snapshot), &snap); err != nil {
		return signals.Signal{}, fmt.Errorf("snapshot: %w", err)
	}
	s.Snapshot = snap
	return s, nil
}

const upsert = `
	INSERT INTO signals (id, pair, direction, confidence, rationale, snapshot, created_at)
	VALUES (:id, :pair, :direction, :confidence, :rationale, :snapshot, :created_at)
	ON CONFLICT (id) DO UPDATE SET
		pair = excluded.pair,
		direction = excluded.direction,
		confidence = excluded.confidence,
		rationale = excluded.rationale,
		snapshot = excluded.snapshot,
		created_at = excluded.created_at`

const trim = `
	DELETE FROM signals WHERE id NOT IN (
		SELECT id FROM signals ORDER BY created_at DESC, id DESC LIMIT ?
	)`

func (s *SQLStore) Save(ctx context.Context, sig signals.Signal) error {
	return s.SaveMany(ctx, []signals.Signal{sig})
}

// SaveMany upserts the batch and trims the table to maxItems in one
// transaction.
func (s *SQLStore) SaveMany(ctx context.Context, sigs []signals.Signal) error {
	if len(sigs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, sig := range sigs {
		r, err := toRow(sig)
		if err != nil {
			return fmt.Errorf("history: encode %s: %w", sig.ID, err)
		}
		if _, err := tx.NamedExecContext(ctx, upsert, r); err != nil {
			return fmt.Errorf("history: save %s: %w", sig.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(trim), s.maxItems); err != nil {
		return fmt.Errorf("history: trim: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) Recent(ctx context.Context, limit int) ([]signals.Signal, error) {
	return s.query(ctx, `
		SELECT id, pair, direction, confidence, rationale, snapshot, created_at
		FROM signals
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, normLimit(limit))
}

func (s *SQLStore) ByPair(ctx context.Context, pair market.Pair, limit int) ([]signals.Signal, error) {
	return s.query(ctx, `
		SELECT id, pair, direction, confidence, rationale, snapshot, created_at
		FROM signals
		WHERE pair = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, pair.String(), normLimit(limit))
}

func (s *SQLStore) Get(ctx context.Context, id string) (signals.Signal, error) {
	var r row
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`
		SELECT id, pair, direction, confidence, rationale, snapshot, created_at
		FROM signals
		WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return signals.Signal{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return signals.Signal{}, err
	}
	sig, err := r.signal()
	if err != nil {
		return signals.Signal{}, fmt.Errorf("history: decode %s: %w", r.ID, err)
	}
	return sig, nil
}

// Count returns the number of stored signals.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM signals`)
	return n, err
}

func (s *SQLStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM signals`)
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) query(ctx context.Context, q string, args ...any) ([]signals.Signal, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, err
	}

	out := make([]signals.Signal, 0, len(rows))
	for _, r := range rows {
		sig, err := r.signal()
		if err != nil {
			return nil, fmt.Errorf("history: decode %s: %w", r.ID, err)
		}
		out = append(out, sig)
	}
	return out, nil
}
