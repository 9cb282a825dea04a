// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF mattn/go-sqlite3?
// mattn/go-sqlite3 needs CGo and a C compiler; modernc.org/sqlite is a pure
// Go translation of the SQLite sources, so cross-compilation and container
// builds stay trivial.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" in its init function.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The typed accessors (Users, Videos,
// Subscriptions, History) hand out views implementing the repository
// interfaces, all sharing this one pool.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests) and runs the
// schema migration.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY under concurrent writes,
	// and keeps ":memory:" databases intact — every pooled connection
	// would otherwise see its own empty in-memory database.
	conn.SetMaxOpenConns(1)

	// Force an immediate connection so a bad path surfaces here, not on
	// the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — without it
	// SQLite locks the whole file per write, which stalls a web server.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Referential integrity for videos/subscriptions/history → users.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the UserRepository view of this database.
func (db *DB) Users() *UserDB { return &UserDB{conn: db.conn} }

// Videos returns the VideoRepository view of this database.
func (db *DB) Videos() *VideoDB { return &VideoDB{conn: db.conn} }

// Subscriptions returns the SubscriptionRepository view of this database.
func (db *DB) Subscriptions() *SubscriptionDB { return &SubscriptionDB{conn: db.conn} }

// History returns the HistoryRepository view of this database.
func (db *DB) History() *HistoryDB { return &HistoryDB{conn: db.conn} }

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe
// to run on every startup.
//
// refresh_token is NULLable on purpose: logout removes the value entirely,
// so a later equality check against an empty presented token can never
// accidentally match.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			username        TEXT NOT NULL UNIQUE,
			email           TEXT NOT NULL UNIQUE,
			full_name       TEXT NOT NULL,
			password_hash   TEXT NOT NULL,
			avatar_url      TEXT NOT NULL DEFAULT '',
			avatar_key      TEXT NOT NULL DEFAULT '',
			cover_image_url TEXT NOT NULL DEFAULT '',
			cover_image_key TEXT NOT NULL DEFAULT '',
			refresh_token   TEXT,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS videos (
			id            TEXT PRIMARY KEY,
			owner_id      TEXT NOT NULL REFERENCES users(id),
			title         TEXT NOT NULL,
			url           TEXT NOT NULL,
			thumbnail_url TEXT NOT NULL DEFAULT '',
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_videos_owner_id ON videos(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating videos table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS subscriptions (
			subscriber_id TEXT NOT NULL REFERENCES users(id),
			channel_id    TEXT NOT NULL REFERENCES users(id),
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (subscriber_id, channel_id)
		);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_channel_id ON subscriptions(channel_id);
	`)
	if err != nil {
		return fmt.Errorf("creating subscriptions table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS watch_history (
			user_id    TEXT NOT NULL REFERENCES users(id),
			video_id   TEXT NOT NULL REFERENCES videos(id),
			watched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, video_id)
		);
		CREATE INDEX IF NOT EXISTS idx_watch_history_user_id ON watch_history(user_id, watched_at);
	`)
	if err != nil {
		return fmt.Errorf("creating watch_history table: %w", err)
	}

	return nil
}
