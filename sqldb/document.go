package sqldb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wansing/ojsbridge/core"
)

type DocumentDB struct {
	addImage    *sql.Stmt
	get         *sql.Stmt
	getImage    *sql.Stmt
	images      *sql.Stmt
	insert      *sql.Stmt
	insertImage *sql.Stmt
}

func NewDocumentDB(db *sql.DB, d Dialect) (*DocumentDB, error) {

	err := createTables(db,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS document (
				%s,
				owner_id int(11) NOT NULL,
				template_id int(11) NOT NULL,
				title varchar(255) NOT NULL,
				path varchar(512) NOT NULL,
				content mediumtext NOT NULL,
				bibliography mediumtext NOT NULL,
				comments mediumtext NOT NULL,
				ts_created bigint NOT NULL
			);`, d.ID),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS image (
				%s,
				uploader_id int(11) NOT NULL,
				file varchar(255) NOT NULL
			);`, d.ID),
		`
			CREATE TABLE IF NOT EXISTS document_image (
				document_id int(11) NOT NULL,
				image_id int(11) NOT NULL,
				PRIMARY KEY (document_id, image_id)
			);`)
	if err != nil {
		return nil, err
	}

	var documentDB = &DocumentDB{}
	documentDB.addImage = mustPrepare(db, "INSERT INTO document_image (document_id, image_id) VALUES (?, ?)")
	documentDB.get = mustPrepare(db, "SELECT id, owner_id, template_id, title, path, content, bibliography, comments, ts_created FROM document WHERE id = ?")
	documentDB.getImage = mustPrepare(db, "SELECT id, uploader_id, file FROM image WHERE id = ?")
	documentDB.images = mustPrepare(db, "SELECT image_id FROM document_image WHERE document_id = ? ORDER BY image_id")
	documentDB.insert = mustPrepare(db, "INSERT INTO document (owner_id, template_id, title, path, content, bibliography, comments, ts_created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	documentDB.insertImage = mustPrepare(db, "INSERT INTO image (uploader_id, file) VALUES (?, ?)")
	return documentDB, nil
}

func (t *tx) AddDocumentImage(documentID, imageID int) error {
	return t.exec(t.db.documents.addImage, documentID, imageID)
}

func (t *tx) DocumentImages(documentID int) ([]int, error) {
	return t.ints(t.db.documents.images, documentID)
}

func (t *tx) GetDocument(id int) (*core.Document, error) {
	var d = &core.Document{}
	var content, bibliography, comments string
	var created int64
	err := t.stmt(t.db.documents.get).QueryRow(id).Scan(&d.ID, &d.OwnerID, &d.TemplateID, &d.Title, &d.Path, &content, &bibliography, &comments, &created)
	if err != nil {
		return nil, notFound(err)
	}
	d.Content = json.RawMessage(content)
	d.Bibliography = json.RawMessage(bibliography)
	d.Comments = json.RawMessage(comments)
	d.Created = time.Unix(created, 0)
	return d, nil
}

func (t *tx) GetImage(id int) (*core.Image, error) {
	var img = &core.Image{}
	if err := t.stmt(t.db.documents.getImage).QueryRow(id).Scan(&img.ID, &img.UploaderID, &img.File); err != nil {
		return nil, notFound(err)
	}
	return img, nil
}

func (t *tx) InsertDocument(d *core.Document) error {
	var err error
	d.ID, err = t.insert(t.db.documents.insert, d.OwnerID, d.TemplateID, d.Title, d.Path, string(d.Content), string(d.Bibliography), string(d.Comments), d.Created.Unix())
	return err
}

func (t *tx) InsertImage(img *core.Image) error {
	var err error
	img.ID, err = t.insert(t.db.documents.insertImage, img.UploaderID, img.File)
	return err
}
