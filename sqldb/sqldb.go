// Package sqldb stores the submission data in a MySQL or SQLite database.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	sqlite "github.com/mattn/go-sqlite3"
	"github.com/wansing/ojsbridge/core"
)

// Dialect holds the few DDL differences between the supported databases.
type Dialect struct {
	Driver string
	ID     string // surrogate primary key column
}

var (
	MySQL   = Dialect{Driver: "mysql", ID: "id INTEGER PRIMARY KEY AUTO_INCREMENT"}
	SQLite3 = Dialect{Driver: "sqlite3", ID: "id INTEGER PRIMARY KEY"}
)

// DialectOf returns the dialect for a database/sql driver name.
func DialectOf(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "sqlite3":
		return SQLite3, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver: %s", driver)
}

func mustPrepare(db *sql.DB, query string) *sql.Stmt {
	stmt, err := db.Prepare(query)
	if err != nil {
		panic(fmt.Sprintf("preparing %q: %v", query, err))
	}
	return stmt
}

// createTables executes one statement at a time, because the mysql driver rejects multiple statements by default.
func createTables(db *sql.DB, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// notFound translates sql.ErrNoRows into core.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// duplicate translates unique key violations into core.ErrDuplicate.
func duplicate(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 { // ER_DUP_ENTRY
		return fmt.Errorf("%w: %v", core.ErrDuplicate, err)
	}
	var liteErr sqlite.Error
	if errors.As(err, &liteErr) && (liteErr.ExtendedCode == sqlite.ErrConstraintUnique || liteErr.ExtendedCode == sqlite.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %v", core.ErrDuplicate, err)
	}
	return err
}

// DB implements core.DB.
type DB struct {
	*sql.DB
	access      *AccessDB
	documents   *DocumentDB
	journals    *JournalDB
	participant *ParticipantDB
	revisions   *RevisionDB
	submissions *SubmissionDB
	users       *UserDB
}

// New creates the tables if required and prepares all statements.
func New(sqlDB *sql.DB, dialect Dialect) (*DB, error) {
	var db = &DB{DB: sqlDB}
	var err error
	if db.access, err = NewAccessDB(sqlDB); err != nil {
		return nil, fmt.Errorf("access table: %w", err)
	}
	if db.documents, err = NewDocumentDB(sqlDB, dialect); err != nil {
		return nil, fmt.Errorf("document tables: %w", err)
	}
	if db.journals, err = NewJournalDB(sqlDB, dialect); err != nil {
		return nil, fmt.Errorf("journal tables: %w", err)
	}
	if db.participant, err = NewParticipantDB(sqlDB, dialect); err != nil {
		return nil, fmt.Errorf("participant tables: %w", err)
	}
	if db.revisions, err = NewRevisionDB(sqlDB, dialect); err != nil {
		return nil, fmt.Errorf("revision table: %w", err)
	}
	if db.submissions, err = NewSubmissionDB(sqlDB, dialect); err != nil {
		return nil, fmt.Errorf("submission table: %w", err)
	}
	if db.users, err = NewUserDB(sqlDB, dialect); err != nil {
		return nil, fmt.Errorf("user table: %w", err)
	}
	return db, nil
}

func (db *DB) Update(ctx context.Context, fn func(core.Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&tx{ctx: ctx, sqlTx: sqlTx, db: db}); err != nil {
		sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

// tx implements core.Tx. Its methods are spread over the files of the tables.
type tx struct {
	ctx   context.Context
	sqlTx *sql.Tx
	db    *DB
}

func (t *tx) stmt(stmt *sql.Stmt) *sql.Stmt {
	return t.sqlTx.StmtContext(t.ctx, stmt)
}

func (t *tx) exec(stmt *sql.Stmt, args ...interface{}) error {
	_, err := t.stmt(stmt).Exec(args...)
	return duplicate(err)
}

// insert executes stmt and returns the id of the new row.
func (t *tx) insert(stmt *sql.Stmt, args ...interface{}) (int, error) {
	res, err := t.stmt(stmt).Exec(args...)
	if err != nil {
		return 0, duplicate(err)
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// ints queries a single int column.
func (t *tx) ints(stmt *sql.Stmt, args ...interface{}) ([]int, error) {
	rows, err := t.stmt(stmt).Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []int{}
	for rows.Next() {
		var i int
		if err := rows.Scan(&i); err != nil {
			return nil, err
		}
		result = append(result, i)
	}
	return result, rows.Err()
}
