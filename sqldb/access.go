package sqldb

import (
	"database/sql"

	"github.com/wansing/ojsbridge/core"
)

type AccessDB struct {
	all    *sql.Stmt
	delete *sql.Stmt
	get    *sql.Stmt
	insert *sql.Stmt
	update *sql.Stmt
}

func NewAccessDB(db *sql.DB) (*AccessDB, error) {

	err := createTables(db, `
		CREATE TABLE IF NOT EXISTS access_right (
			document_id int(11) NOT NULL,
			user_id int(11) NOT NULL,
			rights varchar(32) NOT NULL,
			PRIMARY KEY (document_id, user_id)
		);`)
	if err != nil {
		return nil, err
	}

	var accessDB = &AccessDB{}
	accessDB.all = mustPrepare(db, "SELECT user_id, rights FROM access_right WHERE document_id = ?")
	accessDB.delete = mustPrepare(db, "DELETE FROM access_right WHERE document_id = ? AND user_id = ?")
	accessDB.get = mustPrepare(db, "SELECT rights FROM access_right WHERE document_id = ? AND user_id = ?")
	accessDB.insert = mustPrepare(db, "INSERT INTO access_right (document_id, user_id, rights) VALUES (?, ?, ?)")
	accessDB.update = mustPrepare(db, "UPDATE access_right SET rights = ? WHERE document_id = ? AND user_id = ?")
	return accessDB, nil
}

func (t *tx) AccessRights(documentID int) (map[int]core.Rights, error) {
	rows, err := t.stmt(t.db.access.all).Query(documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = make(map[int]core.Rights)
	for rows.Next() {
		var userID int
		var name string
		if err := rows.Scan(&userID, &name); err != nil {
			return nil, err
		}
		rights, err := core.ParseRights(name)
		if err != nil {
			return nil, err
		}
		result[userID] = rights
	}
	return result, rows.Err()
}

func (t *tx) DeleteAccessRight(documentID, userID int) error {
	return t.exec(t.db.access.delete, documentID, userID)
}

func (t *tx) GetAccessRight(documentID, userID int) (core.Rights, error) {
	var name string
	if err := t.stmt(t.db.access.get).QueryRow(documentID, userID).Scan(&name); err != nil {
		return core.None, notFound(err)
	}
	return core.ParseRights(name)
}

func (t *tx) InsertAccessRight(documentID, userID int, rights core.Rights) error {
	return t.exec(t.db.access.insert, documentID, userID, rights.String())
}

func (t *tx) UpdateAccessRight(documentID, userID int, rights core.Rights) error {
	return t.exec(t.db.access.update, rights.String(), documentID, userID)
}
