package core_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/wansing/ojsbridge/core"
	"github.com/wansing/ojsbridge/sqldb"
)

const (
	journalKey     = "journal key"
	ojsSubmission  = 100 // submission id assigned by OJS
	ojsAuthor      = 200
	testTemplateID = 1
)

type gatewayCall struct {
	OJSURL   string
	Key      string
	Endpoint string
	Form     url.Values
}

// fakeGateway records calls and answers like the OJS plugin does, unless respond is set.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []gatewayCall
	respond func(ctx context.Context, endpoint string, form url.Values) ([]byte, error)
}

func (g *fakeGateway) Get(ctx context.Context, ojsURL, key, endpoint string) ([]byte, error) {
	return g.Post(ctx, ojsURL, key, endpoint, nil)
}

func (g *fakeGateway) Post(ctx context.Context, ojsURL, key, endpoint string, form url.Values) ([]byte, error) {
	g.mu.Lock()
	g.calls = append(g.calls, gatewayCall{ojsURL, key, endpoint, form})
	var respond = g.respond
	g.mu.Unlock()

	if respond != nil {
		return respond(ctx, endpoint, form)
	}
	switch endpoint {
	case core.AuthorSubmitEndpoint:
		if form.Get("submission_id") == "" {
			return json.Marshal(map[string]int{"submission_id": ojsSubmission, "user_id": ojsAuthor})
		}
	case core.JournalsEndpoint:
		return []byte(`{"journals": []}`), nil
	}
	return []byte(`{}`), nil
}

func (g *fakeGateway) last() gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return gatewayCall{}
	}
	return g.calls[len(g.calls)-1]
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fixture struct {
	db      *core.CoreDB
	gateway *fakeGateway
	journal *core.Journal
	author  *core.User // local submitter
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sqlDB, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.sqlite3")+"?_busy_timeout=10000")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	storage, err := sqldb.New(sqlDB, sqldb.SQLite3)
	require.NoError(t, err)

	var f = &fixture{
		gateway: &fakeGateway{},
		now:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.db = &core.CoreDB{
		DB:               storage,
		Gateway:          f.gateway,
		DefaultTemplates: []int{testTemplateID},
		Secret:           "server secret",
		Now:              func() time.Time { return f.now },
	}
	require.NoError(t, f.db.Init(nil, ""))

	f.journal = &core.Journal{
		OJSURL: "https://ojs.example.org/",
		OJSKey: journalKey,
		OJSJID: 5,
		Name:   "Journal of Bridges",
	}
	created, err := f.db.RegisterJournal(context.Background(), core.Identity{Email: "editor@example.org", Username: "editor"}, f.journal, nil)
	require.NoError(t, err)
	require.True(t, created)

	f.author = f.insertUser(t, "ada", "ada@example.org")
	return f
}

func (f *fixture) insertUser(t *testing.T, username, email string) *core.User {
	t.Helper()
	var u = &core.User{Username: username, Email: email}
	require.NoError(t, f.db.Update(context.Background(), func(tx core.Tx) error {
		return tx.InsertUser(u)
	}))
	return u
}

func (f *fixture) user(t *testing.T, email string) *core.User {
	t.Helper()
	u, err := f.db.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

func (f *fixture) rights(t *testing.T, documentID int) map[int]core.Rights {
	t.Helper()
	rights, err := f.db.AccessRights(context.Background(), documentID)
	require.NoError(t, err)
	return rights
}

func (f *fixture) revision(t *testing.T, submissionID int, version string) *core.Revision {
	t.Helper()
	var rev *core.Revision
	require.NoError(t, f.db.Update(context.Background(), func(tx core.Tx) error {
		var err error
		rev, err = tx.GetRevision(submissionID, core.MustParseStageVersion(version))
		return err
	}))
	return rev
}

func (f *fixture) document(t *testing.T, id int) *core.Document {
	t.Helper()
	var doc *core.Document
	require.NoError(t, f.db.Update(context.Background(), func(tx core.Tx) error {
		var err error
		doc, err = tx.GetDocument(id)
		return err
	}))
	return doc
}

func (f *fixture) firstSubmission(content string) *core.FirstSubmission {
	return &core.FirstSubmission{
		JournalID:    f.journal.ID,
		TemplateID:   testTemplateID,
		Title:        "On Bridges",
		Abstract:     "Bridges connect things.",
		Content:      json.RawMessage(content),
		Bibliography: json.RawMessage(`{}`),
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Affiliation:  "Analytical Engines",
		FidusURL:     "https://fidus.example.org",
	}
}

// submit creates an acknowledged submission at version 1.0.0.
func (f *fixture) submit(t *testing.T, content string) (*core.Submission, *core.Revision) {
	t.Helper()
	sub, rev, _, err := f.db.FirstSubmit(context.Background(), f.author, f.firstSubmission(content))
	require.NoError(t, err)
	return sub, rev
}
