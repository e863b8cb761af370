package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/ojsbridge/core"
)

func openTestDB(t *testing.T) (*sql.DB, *DB) {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	db, err := New(sqlDB, SQLite3)
	require.NoError(t, err)
	return sqlDB, db
}

func TestNewIsIdempotent(t *testing.T) {
	sqlDB, _ := openTestDB(t)
	_, err := New(sqlDB, SQLite3)
	assert.NoError(t, err)
}

func TestDialectOf(t *testing.T) {
	d, err := DialectOf("mysql")
	require.NoError(t, err)
	assert.Equal(t, MySQL, d)
	_, err = DialectOf("postgres")
	assert.Error(t, err)
}

func TestRollback(t *testing.T) {
	_, db := openTestDB(t)
	var ctx = context.Background()

	var u = &core.User{Username: "ada", Email: "ada@example.org"}
	err := db.Update(ctx, func(tx core.Tx) error {
		if err := tx.InsertUser(u); err != nil {
			return err
		}
		return core.ErrInvalid
	})
	assert.Equal(t, core.ErrInvalid, err)

	err = db.Update(ctx, func(tx core.Tx) error {
		_, err := tx.GetUserByEmail("ada@example.org")
		return err
	})
	assert.Equal(t, core.ErrNotFound, err)
}

func TestDeleteSubmission(t *testing.T) {
	_, db := openTestDB(t)
	var ctx = context.Background()

	var sub = &core.Submission{SubmitterID: 1, JournalID: 1, Created: time.Unix(1700000000, 0)}
	var doc = &core.Document{OwnerID: 1, TemplateID: 1, Title: "T", Content: json.RawMessage(`{}`), Bibliography: json.RawMessage(`{}`), Comments: json.RawMessage(`{}`)}
	var img = &core.Image{UploaderID: 1, File: "a.png"}

	require.NoError(t, db.Update(ctx, func(tx core.Tx) error {
		require.NoError(t, tx.InsertSubmission(sub))
		assert.Equal(t, core.Pending, sub.Status)
		require.NoError(t, tx.InsertDocument(doc))
		require.NoError(t, tx.InsertImage(img))
		require.NoError(t, tx.AddDocumentImage(doc.ID, img.ID))
		var rev = &core.Revision{SubmissionID: sub.ID, Version: core.FirstVersion, DocumentID: doc.ID, Contributors: core.Contributors{"a": json.RawMessage(`[1]`)}}
		require.NoError(t, tx.InsertRevision(rev))
		require.NoError(t, tx.InsertAccessRight(doc.ID, 2, core.Write))
		require.NoError(t, tx.InsertAuthor(&core.Author{UserID: 2, SubmissionID: sub.ID, OJSJID: 20}))
		require.NoError(t, tx.InsertEditor(&core.Editor{UserID: 3, SubmissionID: sub.ID, OJSJID: 30, Role: core.SubEditor}))
		require.NoError(t, tx.InsertReviewer(&core.Reviewer{UserID: 4, RevisionID: rev.ID, OJSJID: 40}))

		got, err := tx.GetRevision(sub.ID, core.FirstVersion)
		require.NoError(t, err)
		assert.Equal(t, rev.Contributors, got.Contributors)

		stale, err := tx.StaleSubmissions(time.Unix(1700000001, 0))
		require.NoError(t, err)
		require.Len(t, stale, 1)
		assert.Equal(t, sub.Created, stale[0].Created)

		return tx.DeleteSubmission(sub.ID)
	}))

	require.NoError(t, db.Update(ctx, func(tx core.Tx) error {
		_, err := tx.GetSubmission(sub.ID)
		assert.Equal(t, core.ErrNotFound, err)
		_, err = tx.GetDocument(doc.ID)
		assert.Equal(t, core.ErrNotFound, err)
		_, err = tx.GetAuthor(sub.ID, 20)
		assert.Equal(t, core.ErrNotFound, err)
		_, err = tx.GetEditor(sub.ID, 30)
		assert.Equal(t, core.ErrNotFound, err)
		rights, err := tx.AccessRights(doc.ID)
		assert.Empty(t, rights)
		images, err := tx.DocumentImages(doc.ID)
		assert.Empty(t, images)
		// images are shared between documents
		_, err = tx.GetImage(img.ID)
		return err
	}))
}

func TestDuplicateKeys(t *testing.T) {
	_, db := openTestDB(t)
	var users = 0

	for name, insert := range map[string]func(tx core.Tx) error{
		"author": func(tx core.Tx) error {
			return tx.InsertAuthor(&core.Author{UserID: 2, SubmissionID: 1, OJSJID: 20})
		},
		"reviewer": func(tx core.Tx) error {
			return tx.InsertReviewer(&core.Reviewer{UserID: 2, RevisionID: 1, OJSJID: 20})
		},
		"email": func(tx core.Tx) error {
			users++
			return tx.InsertUser(&core.User{Username: fmt.Sprintf("user%d", users), Email: "same@example.org"})
		},
		"access right": func(tx core.Tx) error {
			return tx.InsertAccessRight(1, 2, core.Read)
		},
		"journal": func(tx core.Tx) error {
			return tx.InsertJournal(&core.Journal{OJSURL: "https://ojs.example.org", OJSKey: "k", OJSJID: 1, EditorID: 1})
		},
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, db.Update(context.Background(), insert))
			err := db.Update(context.Background(), insert)
			assert.True(t, errors.Is(err, core.ErrDuplicate), "%v", err)
		})
	}
}

// The transaction stays usable after a duplicate key, so the caller can look up the existing row.
func TestDuplicateKeepsTransaction(t *testing.T) {
	_, db := openTestDB(t)
	var ctx = context.Background()

	require.NoError(t, db.Update(ctx, func(tx core.Tx) error {
		return tx.InsertAuthor(&core.Author{UserID: 2, SubmissionID: 1, OJSJID: 20})
	}))
	require.NoError(t, db.Update(ctx, func(tx core.Tx) error {
		err := tx.InsertAuthor(&core.Author{UserID: 3, SubmissionID: 1, OJSJID: 20})
		require.True(t, errors.Is(err, core.ErrDuplicate))
		author, err := tx.GetAuthor(1, 20)
		if err != nil {
			return err
		}
		assert.Equal(t, 2, author.UserID)
		return nil
	}))
}
