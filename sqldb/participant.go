package sqldb

import (
	"database/sql"
	"fmt"

	"github.com/wansing/ojsbridge/core"
)

// ParticipantDB stores authors, editors and reviewers.
type ParticipantDB struct {
	authors         *sql.Stmt
	deleteAuthor    *sql.Stmt
	getAuthor       *sql.Stmt
	getAuthorByUser *sql.Stmt
	insertAuthor    *sql.Stmt

	deleteEditor    *sql.Stmt
	editors         *sql.Stmt
	getEditor       *sql.Stmt
	getEditorByUser *sql.Stmt
	insertEditor    *sql.Stmt

	deleteReviewer    *sql.Stmt
	getReviewer       *sql.Stmt
	getReviewerByUser *sql.Stmt
	insertReviewer    *sql.Stmt
	setMethod         *sql.Stmt
}

func NewParticipantDB(db *sql.DB, d Dialect) (*ParticipantDB, error) {

	err := createTables(db,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS author (
				%s,
				user_id int(11) NOT NULL,
				submission_id int(11) NOT NULL,
				ojs_jid int(11) NOT NULL,
				UNIQUE (submission_id, ojs_jid)
			);`, d.ID),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS editor (
				%s,
				user_id int(11) NOT NULL,
				submission_id int(11) NOT NULL,
				ojs_jid int(11) NOT NULL,
				role int(11) NOT NULL,
				UNIQUE (submission_id, ojs_jid)
			);`, d.ID),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS reviewer (
				%s,
				user_id int(11) NOT NULL,
				revision_id int(11) NOT NULL,
				ojs_jid int(11) NOT NULL,
				method varchar(32) NOT NULL DEFAULT '',
				UNIQUE (revision_id, ojs_jid)
			);`, d.ID))
	if err != nil {
		return nil, err
	}

	var p = &ParticipantDB{}

	p.authors = mustPrepare(db, "SELECT id, user_id, submission_id, ojs_jid FROM author WHERE submission_id = ? ORDER BY id")
	p.deleteAuthor = mustPrepare(db, "DELETE FROM author WHERE id = ?")
	p.getAuthor = mustPrepare(db, "SELECT id, user_id, submission_id, ojs_jid FROM author WHERE submission_id = ? AND ojs_jid = ?")
	p.getAuthorByUser = mustPrepare(db, "SELECT id, user_id, submission_id, ojs_jid FROM author WHERE submission_id = ? AND user_id = ? ORDER BY id LIMIT 1")
	p.insertAuthor = mustPrepare(db, "INSERT INTO author (user_id, submission_id, ojs_jid) VALUES (?, ?, ?)")

	p.deleteEditor = mustPrepare(db, "DELETE FROM editor WHERE id = ?")
	p.editors = mustPrepare(db, "SELECT id, user_id, submission_id, ojs_jid, role FROM editor WHERE submission_id = ? ORDER BY id")
	p.getEditor = mustPrepare(db, "SELECT id, user_id, submission_id, ojs_jid, role FROM editor WHERE submission_id = ? AND ojs_jid = ?")
	p.getEditorByUser = mustPrepare(db, "SELECT id, user_id, submission_id, ojs_jid, role FROM editor WHERE submission_id = ? AND user_id = ? ORDER BY id LIMIT 1")
	p.insertEditor = mustPrepare(db, "INSERT INTO editor (user_id, submission_id, ojs_jid, role) VALUES (?, ?, ?, ?)")

	p.deleteReviewer = mustPrepare(db, "DELETE FROM reviewer WHERE id = ?")
	p.getReviewer = mustPrepare(db, "SELECT id, user_id, revision_id, ojs_jid, method FROM reviewer WHERE revision_id = ? AND ojs_jid = ?")
	p.getReviewerByUser = mustPrepare(db, "SELECT id, user_id, revision_id, ojs_jid, method FROM reviewer WHERE revision_id = ? AND user_id = ? ORDER BY id LIMIT 1")
	p.insertReviewer = mustPrepare(db, "INSERT INTO reviewer (user_id, revision_id, ojs_jid, method) VALUES (?, ?, ?, ?)")
	p.setMethod = mustPrepare(db, "UPDATE reviewer SET method = ? WHERE id = ?")

	return p, nil
}

// authors

func scanAuthor(row scanner) (*core.Author, error) {
	var a = &core.Author{}
	if err := row.Scan(&a.ID, &a.UserID, &a.SubmissionID, &a.OJSJID); err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (t *tx) Authors(submissionID int) ([]core.Author, error) {
	rows, err := t.stmt(t.db.participant.authors).Query(submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []core.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (t *tx) DeleteAuthor(id int) error {
	return t.exec(t.db.participant.deleteAuthor, id)
}

func (t *tx) GetAuthor(submissionID, ojsJID int) (*core.Author, error) {
	return scanAuthor(t.stmt(t.db.participant.getAuthor).QueryRow(submissionID, ojsJID))
}

func (t *tx) GetAuthorByUser(submissionID, userID int) (*core.Author, error) {
	return scanAuthor(t.stmt(t.db.participant.getAuthorByUser).QueryRow(submissionID, userID))
}

func (t *tx) InsertAuthor(a *core.Author) error {
	var err error
	a.ID, err = t.insert(t.db.participant.insertAuthor, a.UserID, a.SubmissionID, a.OJSJID)
	return err
}

// editors

func scanEditor(row scanner) (*core.Editor, error) {
	var e = &core.Editor{}
	var role int
	if err := row.Scan(&e.ID, &e.UserID, &e.SubmissionID, &e.OJSJID, &role); err != nil {
		return nil, notFound(err)
	}
	e.Role = core.Role(role)
	return e, nil
}

func (t *tx) DeleteEditor(id int) error {
	return t.exec(t.db.participant.deleteEditor, id)
}

func (t *tx) Editors(submissionID int) ([]core.Editor, error) {
	rows, err := t.stmt(t.db.participant.editors).Query(submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []core.Editor{}
	for rows.Next() {
		e, err := scanEditor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (t *tx) GetEditor(submissionID, ojsJID int) (*core.Editor, error) {
	return scanEditor(t.stmt(t.db.participant.getEditor).QueryRow(submissionID, ojsJID))
}

func (t *tx) GetEditorByUser(submissionID, userID int) (*core.Editor, error) {
	return scanEditor(t.stmt(t.db.participant.getEditorByUser).QueryRow(submissionID, userID))
}

func (t *tx) InsertEditor(e *core.Editor) error {
	var err error
	e.ID, err = t.insert(t.db.participant.insertEditor, e.UserID, e.SubmissionID, e.OJSJID, int(e.Role))
	return err
}

// reviewers

func scanReviewer(row scanner) (*core.Reviewer, error) {
	var r = &core.Reviewer{}
	var method string
	if err := row.Scan(&r.ID, &r.UserID, &r.RevisionID, &r.OJSJID, &method); err != nil {
		return nil, notFound(err)
	}
	r.Method = core.ReviewMethod(method)
	return r, nil
}

func (t *tx) DeleteReviewer(id int) error {
	return t.exec(t.db.participant.deleteReviewer, id)
}

func (t *tx) GetReviewer(revisionID, ojsJID int) (*core.Reviewer, error) {
	return scanReviewer(t.stmt(t.db.participant.getReviewer).QueryRow(revisionID, ojsJID))
}

func (t *tx) GetReviewerByUser(revisionID, userID int) (*core.Reviewer, error) {
	return scanReviewer(t.stmt(t.db.participant.getReviewerByUser).QueryRow(revisionID, userID))
}

func (t *tx) InsertReviewer(r *core.Reviewer) error {
	var err error
	r.ID, err = t.insert(t.db.participant.insertReviewer, r.UserID, r.RevisionID, r.OJSJID, string(r.Method))
	return err
}

func (t *tx) SetReviewerMethod(id int, method core.ReviewMethod) error {
	return t.exec(t.db.participant.setMethod, string(method), id)
}
