package sqldb

import (
	"database/sql"
	"fmt"

	"github.com/wansing/ojsbridge/core"
)

type UserDB struct {
	get        *sql.Stmt
	getByEmail *sql.Stmt
	getByName  *sql.Stmt
	insert     *sql.Stmt
}

func NewUserDB(db *sql.DB, d Dialect) (*UserDB, error) {

	err := createTables(db, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS usr (
			%s,
			username varchar(150) NOT NULL,
			email varchar(254) NOT NULL,
			UNIQUE(username),
			UNIQUE(email)
		);`, d.ID))
	if err != nil {
		return nil, err
	}

	var userDB = &UserDB{}
	userDB.get = mustPrepare(db, "SELECT id, username, email FROM usr WHERE id = ?")
	userDB.getByEmail = mustPrepare(db, "SELECT id, username, email FROM usr WHERE email = ? ORDER BY id LIMIT 1")
	userDB.getByName = mustPrepare(db, "SELECT id, username, email FROM usr WHERE username = ?")
	userDB.insert = mustPrepare(db, "INSERT INTO usr (username, email) VALUES (?, ?)")
	return userDB, nil
}

func scanUser(row scanner) (*core.User, error) {
	var u = &core.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Email); err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (t *tx) GetUser(id int) (*core.User, error) {
	return scanUser(t.stmt(t.db.users.get).QueryRow(id))
}

func (t *tx) GetUserByEmail(email string) (*core.User, error) {
	return scanUser(t.stmt(t.db.users.getByEmail).QueryRow(email))
}

func (t *tx) GetUserByName(username string) (*core.User, error) {
	return scanUser(t.stmt(t.db.users.getByName).QueryRow(username))
}

func (t *tx) InsertUser(u *core.User) error {
	var err error
	u.ID, err = t.insert(t.db.users.insert, u.Username, u.Email)
	return err
}
