// Package mysql provides the session store for MySQL databases.
package mysql

import (
	"database/sql"
	"errors"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"
	driver "github.com/go-sql-driver/mysql"
)

// NewSessionStore creates the sessions table if required.
func NewSessionStore(db *sql.DB) (scs.Store, error) {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token CHAR(43) PRIMARY KEY,
			data BLOB NOT NULL,
			expiry TIMESTAMP(6) NOT NULL
		);`); err != nil {
		return nil, err
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS
	if _, err := db.Exec(`CREATE INDEX sessions_expiry_idx ON sessions (expiry);`); err != nil {
		var myErr *driver.MySQLError
		if !errors.As(err, &myErr) || myErr.Number != 1061 { // ER_DUP_KEYNAME
			return nil, err
		}
	}
	return mysqlstore.New(db), nil
}
