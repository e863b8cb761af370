// Package sqlite3 provides the session store for SQLite databases.
package sqlite3

import (
	"database/sql"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// NewSessionStore creates the sessions table if required. Sessions hold the local user id after a login token has been redeemed.
func NewSessionStore(db *sql.DB) (scs.Store, error) {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, err
		}
	}
	return sqlite3store.New(db), nil
}
