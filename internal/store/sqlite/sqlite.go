package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the shared database file. The bridge and
// webhook processes both open the same file; WAL plus a busy timeout lets the
// engine serialize their writes instead of failing fast on lock contention.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		url.PathEscape(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// The driver is embedded; a single connection per process avoids
	// in-process writer contention on top of the cross-process kind.
	db.SetMaxOpenConns(1)
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	phone TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	order_number TEXT NOT NULL,
	date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id INTEGER NOT NULL,
	phone TEXT NOT NULL,
	message TEXT NOT NULL,
	direction TEXT NOT NULL,
	status TEXT NOT NULL,
	media_url TEXT,
	media_type TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_phone_created ON messages(phone, created_at);

CREATE TABLE IF NOT EXISTS templates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	template_name TEXT NOT NULL,
	template_text TEXT NOT NULL
);
`

// Migrate creates the schema when missing. Both processes call it on startup;
// CREATE IF NOT EXISTS makes that safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
