package sqldb

import (
	"database/sql"
	"fmt"

	"github.com/wansing/ojsbridge/core"
)

type JournalDB struct {
	accepts     *sql.Stmt
	addTemplate *sql.Stmt
	byTemplate  *sql.Stmt
	get         *sql.Stmt
	getByRemote *sql.Stmt
	insert      *sql.Stmt
}

func NewJournalDB(db *sql.DB, d Dialect) (*JournalDB, error) {

	err := createTables(db,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS journal (
				%s,
				ojs_url varchar(255) NOT NULL,
				ojs_key varchar(255) NOT NULL,
				ojs_jid int(11) NOT NULL,
				name varchar(255) NOT NULL,
				editor_id int(11) NOT NULL,
				UNIQUE (ojs_url, ojs_jid)
			);`, d.ID),
		`
			CREATE TABLE IF NOT EXISTS journal_template (
				journal_id int(11) NOT NULL,
				template_id int(11) NOT NULL,
				PRIMARY KEY (journal_id, template_id)
			);`)
	if err != nil {
		return nil, err
	}

	var journalDB = &JournalDB{}
	journalDB.accepts = mustPrepare(db, "SELECT COUNT(1) FROM journal_template WHERE journal_id = ? AND template_id = ?")
	journalDB.addTemplate = mustPrepare(db, "INSERT INTO journal_template (journal_id, template_id) VALUES (?, ?)")
	journalDB.byTemplate = mustPrepare(db, "SELECT j.id, j.ojs_url, j.ojs_key, j.ojs_jid, j.name, j.editor_id FROM journal j, journal_template t WHERE t.template_id = ? AND t.journal_id = j.id ORDER BY j.name")
	journalDB.get = mustPrepare(db, "SELECT id, ojs_url, ojs_key, ojs_jid, name, editor_id FROM journal WHERE id = ?")
	journalDB.getByRemote = mustPrepare(db, "SELECT id, ojs_url, ojs_key, ojs_jid, name, editor_id FROM journal WHERE ojs_url = ? AND ojs_jid = ?")
	journalDB.insert = mustPrepare(db, "INSERT INTO journal (ojs_url, ojs_key, ojs_jid, name, editor_id) VALUES (?, ?, ?, ?, ?)")
	return journalDB, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJournal(row scanner) (*core.Journal, error) {
	var j = &core.Journal{}
	if err := row.Scan(&j.ID, &j.OJSURL, &j.OJSKey, &j.OJSJID, &j.Name, &j.EditorID); err != nil {
		return nil, notFound(err)
	}
	return j, nil
}

func (t *tx) AddJournalTemplate(journalID, templateID int) error {
	accepts, err := t.JournalAcceptsTemplate(journalID, templateID)
	if err != nil || accepts {
		return err
	}
	return t.exec(t.db.journals.addTemplate, journalID, templateID)
}

func (t *tx) GetJournal(id int) (*core.Journal, error) {
	return scanJournal(t.stmt(t.db.journals.get).QueryRow(id))
}

func (t *tx) GetJournalByRemote(ojsURL string, ojsJID int) (*core.Journal, error) {
	return scanJournal(t.stmt(t.db.journals.getByRemote).QueryRow(ojsURL, ojsJID))
}

func (t *tx) InsertJournal(j *core.Journal) error {
	var err error
	j.ID, err = t.insert(t.db.journals.insert, j.OJSURL, j.OJSKey, j.OJSJID, j.Name, j.EditorID)
	return err
}

func (t *tx) JournalAcceptsTemplate(journalID, templateID int) (bool, error) {
	var count int
	err := t.stmt(t.db.journals.accepts).QueryRow(journalID, templateID).Scan(&count)
	return count > 0, err
}

func (t *tx) JournalsByTemplate(templateID int) ([]core.Journal, error) {
	rows, err := t.stmt(t.db.journals.byTemplate).Query(templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var journals = []core.Journal{}
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		journals = append(journals, *j)
	}
	return journals, rows.Err()
}
