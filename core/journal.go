package core

import (
	"context"
	"crypto/subtle"
	"strings"
)

// A Journal is an OJS journal which has been connected to this server.
type Journal struct {
	ID       int
	OJSURL   string // base url of the OJS installation
	OJSKey   string // shared secret
	OJSJID   int    // journal id within the OJS installation
	Name     string
	EditorID int // owns all submission documents
}

type JournalTx interface {
	AddJournalTemplate(journalID, templateID int) error
	GetJournal(id int) (*Journal, error)
	GetJournalByRemote(ojsURL string, ojsJID int) (*Journal, error)
	InsertJournal(j *Journal) error // sets j.ID
	JournalAcceptsTemplate(journalID, templateID int) (bool, error)
	JournalsByTemplate(templateID int) ([]Journal, error)
}

// checkKey compares the key in constant time.
func (j *Journal) checkKey(key string) error {
	if key == "" || subtle.ConstantTimeCompare([]byte(j.OJSKey), []byte(key)) != 1 {
		return ErrAuthentication
	}
	return nil
}

// SaveJournal registers a journal and lets it accept the given templates (or the default templates if nil).
// If a journal with the same OJS url and id exists, it does nothing and returns created == false.
func (c *CoreDB) SaveJournal(ctx context.Context, j *Journal, templates []int) (created bool, err error) {
	j.OJSURL = strings.TrimSuffix(strings.TrimSpace(j.OJSURL), "/")
	if templates == nil {
		templates = c.DefaultTemplates
	}
	var remote = *j
	err = c.createOrGet(ctx, func(tx Tx) error {
		*j = remote
		existing, err := tx.GetJournalByRemote(j.OJSURL, j.OJSJID)
		if err == nil {
			*j = *existing
			return nil
		}
		if err != ErrNotFound {
			return err
		}
		if _, err := tx.GetUser(j.EditorID); err != nil {
			return err
		}
		if err := tx.InsertJournal(j); err != nil {
			return err
		}
		var added = make(map[int]struct{}, len(templates))
		for _, t := range templates {
			if _, ok := added[t]; ok {
				continue
			}
			added[t] = struct{}{}
			if err := tx.AddJournalTemplate(j.ID, t); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	return
}

// RegisterJournal creates the editor user if required and saves the journal.
func (c *CoreDB) RegisterJournal(ctx context.Context, editor Identity, j *Journal, templates []int) (bool, error) {
	err := c.createOrGet(ctx, func(tx Tx) error {
		u, err := getOrCreateUser(tx, editor)
		if err != nil {
			return err
		}
		j.EditorID = u.ID
		return nil
	})
	if err != nil {
		return false, err
	}
	return c.SaveJournal(ctx, j, templates)
}
