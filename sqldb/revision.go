package sqldb

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wansing/ojsbridge/core"
)

type RevisionDB struct {
	all           *sql.Stmt
	get           *sql.Stmt
	getByDocument *sql.Stmt
	insert        *sql.Stmt
}

func NewRevisionDB(db *sql.DB, d Dialect) (*RevisionDB, error) {

	err := createTables(db, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS submission_revision (
			%s,
			submission_id int(11) NOT NULL,
			version varchar(8) NOT NULL,
			document_id int(11) NOT NULL,
			contributors mediumtext NOT NULL,
			UNIQUE (submission_id, version)
		);`, d.ID))
	if err != nil {
		return nil, err
	}

	var revisionDB = &RevisionDB{}
	revisionDB.all = mustPrepare(db, "SELECT id, submission_id, version, document_id, contributors FROM submission_revision WHERE submission_id = ? ORDER BY id")
	revisionDB.get = mustPrepare(db, "SELECT id, submission_id, version, document_id, contributors FROM submission_revision WHERE submission_id = ? AND version = ?")
	revisionDB.getByDocument = mustPrepare(db, "SELECT id, submission_id, version, document_id, contributors FROM submission_revision WHERE document_id = ? ORDER BY id LIMIT 1")
	revisionDB.insert = mustPrepare(db, "INSERT INTO submission_revision (submission_id, version, document_id, contributors) VALUES (?, ?, ?, ?)")
	return revisionDB, nil
}

func scanRevision(row scanner) (*core.Revision, error) {
	var r = &core.Revision{}
	var version, contributors string
	if err := row.Scan(&r.ID, &r.SubmissionID, &version, &r.DocumentID, &contributors); err != nil {
		return nil, notFound(err)
	}
	var err error
	if r.Version, err = core.ParseStageVersion(version); err != nil {
		return nil, err
	}
	r.Contributors = core.Contributors{}
	if contributors != "" {
		if err := json.Unmarshal([]byte(contributors), &r.Contributors); err != nil {
			return nil, fmt.Errorf("revision %d: contributors: %w", r.ID, err)
		}
	}
	return r, nil
}

func (t *tx) GetRevision(submissionID int, version core.StageVersion) (*core.Revision, error) {
	return scanRevision(t.stmt(t.db.revisions.get).QueryRow(submissionID, version.String()))
}

func (t *tx) GetRevisionByDocument(documentID int) (*core.Revision, error) {
	return scanRevision(t.stmt(t.db.revisions.getByDocument).QueryRow(documentID))
}

func (t *tx) InsertRevision(r *core.Revision) error {
	if r.Contributors == nil {
		r.Contributors = core.Contributors{}
	}
	contributors, err := json.Marshal(r.Contributors)
	if err != nil {
		return err
	}
	r.ID, err = t.insert(t.db.revisions.insert, r.SubmissionID, r.Version.String(), r.DocumentID, string(contributors))
	return err
}

func (t *tx) Revisions(submissionID int) ([]core.Revision, error) {
	rows, err := t.stmt(t.db.revisions.all).Query(submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []core.Revision{}
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}
