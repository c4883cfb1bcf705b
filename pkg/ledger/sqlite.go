package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// sqliteSchema creates the append-only records table. There is deliberately
// no UPDATE path: tampering means rewriting rows outside this code, which
// Verify detects.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_records (
    seq INTEGER PRIMARY KEY,
    id TEXT NOT NULL,
    payload BLOB NOT NULL,
    prev_hash TEXT NOT NULL,
    hash TEXT NOT NULL,
    recorded_at TIMESTAMP NOT NULL
);
`

// SQLiteStorage persists the chain to a SQLite database in WAL mode.
type SQLiteStorage struct {
	db *sql.DB

	appendStmt *sql.Stmt
	lastStmt   *sql.Stmt
}

// NewSQLiteStorage opens (creating if needed) the ledger database at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}

	s := &SQLiteStorage{db: db}

	s.appendStmt, err = db.Prepare(
		`INSERT INTO audit_records (seq, id, payload, prev_hash, hash, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing append statement: %w", err)
	}

	s.lastStmt, err = db.Prepare(
		`SELECT seq, id, payload, prev_hash, hash, recorded_at
		 FROM audit_records ORDER BY seq DESC LIMIT 1`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing head statement: %w", err)
	}

	return s, nil
}

// Append implements Storage. The primary key on seq rejects forked appends
// at the storage layer as a second line of defense behind the Ledger mutex.
func (s *SQLiteStorage) Append(ctx context.Context, rec *Record) error {
	_, err := s.appendStmt.ExecContext(ctx,
		rec.Seq, rec.ID, rec.Payload, rec.PrevHash, rec.Hash, rec.RecordedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting audit record %d: %w", rec.Seq, err)
	}
	return nil
}

// Last implements Storage.
func (s *SQLiteStorage) Last(ctx context.Context) (*Record, error) {
	rec, err := scanRecord(s.lastStmt.QueryRowContext(ctx))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// Walk implements Storage.
func (s *SQLiteStorage) Walk(ctx context.Context, fn func(*Record) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, payload, prev_hash, hash, recorded_at
		 FROM audit_records ORDER BY seq ASC`)
	if err != nil {
		return fmt.Errorf("querying audit records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close implements Storage.
func (s *SQLiteStorage) Close() error {
	if s.appendStmt != nil {
		s.appendStmt.Close()
	}
	if s.lastStmt != nil {
		s.lastStmt.Close()
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var recordedAt string
	if err := row.Scan(&rec.Seq, &rec.ID, &rec.Payload, &rec.PrevHash, &rec.Hash, &recordedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning audit record: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing recorded_at: %w", err)
	}
	rec.RecordedAt = t
	return &rec, nil
}
