package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// A Document is a snapshot of the document of one revision. It is never modified after the revision has been superseded.
type Document struct {
	ID           int
	OwnerID      int
	TemplateID   int
	Title        string
	Path         string
	Content      json.RawMessage
	Bibliography json.RawMessage
	Comments     json.RawMessage
	Created      time.Time
}

type Image struct {
	ID         int
	UploaderID int
	File       string
}

type DocumentTx interface {
	AddDocumentImage(documentID, imageID int) error
	DocumentImages(documentID int) ([]int, error) // image ids, may refer to deleted images
	GetDocument(id int) (*Document, error)
	GetImage(id int) (*Image, error)
	InsertDocument(d *Document) error // sets d.ID
	InsertImage(img *Image) error     // sets img.ID
}

// DocumentPath returns the storage path of a submission document.
func DocumentPath(submissionID int, title string, version StageVersion) string {
	title = norm.NFC.String(strings.ReplaceAll(title, "/", ""))
	return fmt.Sprintf("/Submission %d/%s (%s)", submissionID, title, version)
}

// createDocument inserts a document and links the images. Missing images are replaced by the placeholder image.
func (c *CoreDB) createDocument(tx Tx, submissionID int, version StageVersion, src *Document, imageIDs []int) (*Document, error) {

	var doc = &Document{
		OwnerID:      src.OwnerID,
		TemplateID:   src.TemplateID,
		Title:        src.Title,
		Path:         DocumentPath(submissionID, src.Title, version),
		Content:      src.Content,
		Bibliography: src.Bibliography,
		Comments:     src.Comments,
		Created:      c.now(),
	}
	if len(doc.Bibliography) == 0 {
		doc.Bibliography = json.RawMessage("{}")
	}
	if len(doc.Comments) == 0 {
		doc.Comments = json.RawMessage("{}")
	}

	if err := tx.InsertDocument(doc); err != nil {
		return nil, err
	}

	var linked = make(map[int]struct{})
	for _, imageID := range imageIDs {
		img, err := tx.GetImage(imageID)
		if err == ErrNotFound {
			img = &Image{
				UploaderID: doc.OwnerID,
				File:       c.PlaceholderImage,
			}
			if err := tx.InsertImage(img); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		if _, ok := linked[img.ID]; ok {
			continue
		}
		linked[img.ID] = struct{}{}
		if err := tx.AddDocumentImage(doc.ID, img.ID); err != nil {
			return nil, err
		}
	}

	return doc, nil
}
