// Package telemetry persists denial events so operators can see what
// sandboxed scripts attempted and decide which entries to whitelist.
package telemetry

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mutecomm/go-sqlcipher/v4" // SQLCipher driver for encrypted SQLite

	"github.com/svanoort/script-security-plugin/internal/logger"
)

var log = logger.New("telemetry")

// MinEncryptionKeyLength is the minimum accepted SQLCipher key length.
const MinEncryptionKeyLength = 16

// Denial is one recorded denied operation. Session identifies the script
// run that attempted it, when the embedding interpreter provides one.
type Denial struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Signature string    `json:"signature"`
	Call      string    `json:"call"`
	Session   string    `json:"session,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Storage is the SQLite/SQLCipher denial log.
type Storage struct {
	conn      *sql.DB
	encrypted bool
}

// NewStorage opens (and if needed creates) the denial database. A
// non-empty encryptionKey enables SQLCipher at-rest encryption.
func NewStorage(dbPath, encryptionKey string) (*Storage, error) {
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")

	if encryptionKey != "" {
		if len(encryptionKey) < MinEncryptionKeyLength {
			return nil, fmt.Errorf("encryption key must be at least %d characters", MinEncryptionKeyLength)
		}
		// Key goes through the connection string, not a PRAGMA, so it is
		// never interpolated into SQL.
		params.Set("_pragma_key", encryptionKey)
	}

	conn, err := sql.Open("sqlite3", dbPath+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection serializes access and
	// avoids SQLITE_BUSY under concurrent denials.
	conn.SetMaxOpenConns(1)

	s := &Storage{conn: conn, encrypted: encryptionKey != ""}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS denials (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			kind       TEXT NOT NULL,
			signature  TEXT NOT NULL,
			call       TEXT NOT NULL DEFAULT '',
			session    TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_denials_created_at ON denials(created_at);
		CREATE INDEX IF NOT EXISTS idx_denials_signature ON denials(signature);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Encrypted reports whether the database is SQLCipher-encrypted.
func (s *Storage) Encrypted() bool { return s.encrypted }

// LogDenial records one denial.
func (s *Storage) LogDenial(d Denial) error {
	_, err := s.conn.Exec(
		`INSERT INTO denials (kind, signature, call, session) VALUES (?, ?, ?, ?)`,
		d.Kind, d.Signature, d.Call, d.Session,
	)
	return err
}

// RecentDenials returns the most recent denials, newest first.
func (s *Storage) RecentDenials(limit int) ([]Denial, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.Query(
		`SELECT id, kind, signature, call, session, created_at
		 FROM denials ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Denial
	for rows.Next() {
		var d Denial
		if err := rows.Scan(&d.ID, &d.Kind, &d.Signature, &d.Call, &d.Session, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SignatureCount is one row of the per-signature denial aggregate, the
// list an operator reviews when deciding what to whitelist.
type SignatureCount struct {
	Signature string `json:"signature"`
	Count     int64  `json:"count"`
}

// TopDenied returns the most frequently denied signatures.
func (s *Storage) TopDenied(limit int) ([]SignatureCount, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(
		`SELECT signature, COUNT(*) AS n FROM denials
		 GROUP BY signature ORDER BY n DESC, signature ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignatureCount
	for rows.Next() {
		var sc SignatureCount
		if err := rows.Scan(&sc.Signature, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Prune deletes denials older than retentionDays and returns the count.
func (s *Storage) Prune(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res, err := s.conn.Exec(`DELETE FROM denials WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Info("Pruned %d denial records older than %d days", n, retentionDays)
	}
	return n, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.conn.Close()
}
