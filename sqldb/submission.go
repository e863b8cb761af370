package sqldb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wansing/ojsbridge/core"
)

type SubmissionDB struct {
	acknowledge *sql.Stmt
	delete      []*sql.Stmt // executed in order
	get         *sql.Stmt
	insert      *sql.Stmt
	setStatus   *sql.Stmt
	stale       *sql.Stmt
}

func NewSubmissionDB(db *sql.DB, d Dialect) (*SubmissionDB, error) {

	err := createTables(db, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS submission (
			%s,
			submitter_id int(11) NOT NULL,
			journal_id int(11) NOT NULL,
			ojs_jid int(11) NOT NULL DEFAULT 0,
			status varchar(16) NOT NULL,
			ts_created bigint NOT NULL
		);`, d.ID))
	if err != nil {
		return nil, err
	}

	var submissionDB = &SubmissionDB{}
	submissionDB.acknowledge = mustPrepare(db, "UPDATE submission SET ojs_jid = ?, status = ? WHERE id = ? AND status = ?")
	submissionDB.delete = []*sql.Stmt{
		mustPrepare(db, "DELETE FROM access_right WHERE document_id IN (SELECT document_id FROM submission_revision WHERE submission_id = ?)"),
		mustPrepare(db, "DELETE FROM document_image WHERE document_id IN (SELECT document_id FROM submission_revision WHERE submission_id = ?)"),
		mustPrepare(db, "DELETE FROM reviewer WHERE revision_id IN (SELECT id FROM submission_revision WHERE submission_id = ?)"),
		mustPrepare(db, "DELETE FROM document WHERE id IN (SELECT document_id FROM submission_revision WHERE submission_id = ?)"),
		mustPrepare(db, "DELETE FROM submission_revision WHERE submission_id = ?"),
		mustPrepare(db, "DELETE FROM author WHERE submission_id = ?"),
		mustPrepare(db, "DELETE FROM editor WHERE submission_id = ?"),
		mustPrepare(db, "DELETE FROM submission WHERE id = ?"),
	}
	submissionDB.get = mustPrepare(db, "SELECT id, submitter_id, journal_id, ojs_jid, status, ts_created FROM submission WHERE id = ?")
	submissionDB.insert = mustPrepare(db, "INSERT INTO submission (submitter_id, journal_id, ojs_jid, status, ts_created) VALUES (?, ?, ?, ?, ?)")
	submissionDB.setStatus = mustPrepare(db, "UPDATE submission SET status = ? WHERE id = ?")
	submissionDB.stale = mustPrepare(db, "SELECT id, submitter_id, journal_id, ojs_jid, status, ts_created FROM submission WHERE status = ? OR (status = ? AND ts_created < ?) ORDER BY id")
	return submissionDB, nil
}

func scanSubmission(row scanner) (*core.Submission, error) {
	var s = &core.Submission{}
	var status string
	var created int64
	if err := row.Scan(&s.ID, &s.SubmitterID, &s.JournalID, &s.OJSJID, &status, &created); err != nil {
		return nil, notFound(err)
	}
	s.Status = core.SubmissionStatus(status)
	s.Created = time.Unix(created, 0)
	return s, nil
}

// AcknowledgeSubmission returns core.ErrNotFound if the submission is not pending any more, e.g. because it has been swept.
func (t *tx) AcknowledgeSubmission(id, ojsJID int) error {
	res, err := t.stmt(t.db.submissions.acknowledge).Exec(ojsJID, string(core.Acknowledged), id, string(core.Pending))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (t *tx) DeleteSubmission(id int) error {
	for _, stmt := range t.db.submissions.delete {
		if err := t.exec(stmt, id); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) GetSubmission(id int) (*core.Submission, error) {
	return scanSubmission(t.stmt(t.db.submissions.get).QueryRow(id))
}

func (t *tx) InsertSubmission(s *core.Submission) error {
	if s.Status == "" {
		s.Status = core.Pending
	}
	var err error
	s.ID, err = t.insert(t.db.submissions.insert, s.SubmitterID, s.JournalID, s.OJSJID, string(s.Status), s.Created.Unix())
	return err
}

func (t *tx) SetSubmissionStatus(id int, status core.SubmissionStatus) error {
	return t.exec(t.db.submissions.setStatus, string(status), id)
}

func (t *tx) StaleSubmissions(pendingBefore time.Time) ([]core.Submission, error) {
	rows, err := t.stmt(t.db.submissions.stale).Query(string(core.Failed), string(core.Pending), pendingBefore.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []core.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}
