package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wansing/ojsbridge/util"
)

// Tx provides all storage operations. Its methods are only valid within the callback of DB.Update.
type Tx interface {
	AccessTx
	DocumentTx
	JournalTx
	ParticipantTx
	RevisionTx
	SubmissionTx
	UserTx
}

type DB interface {
	// Update runs fn in a storage transaction. If fn returns an error, the transaction is rolled back.
	Update(ctx context.Context, fn func(tx Tx) error) error
}

// Gateway talks to the gateway plugin of an OJS installation.
type Gateway interface {
	Get(ctx context.Context, ojsURL, key, endpoint string) ([]byte, error)
	Post(ctx context.Context, ojsURL, key, endpoint string, form url.Values) ([]byte, error)
}

// OJS gateway plugin endpoints
const (
	JournalsEndpoint            = "journals"
	AuthorSubmitEndpoint        = "authorSubmit"
	ReviewerSubmitEndpoint      = "reviewerSubmit"
	CopyeditDraftSubmitEndpoint = "copyeditDraftSubmit"
)

type CoreDB struct {
	DB
	Gateway        Gateway
	SessionManager *scs.SessionManager

	DefaultTemplates []int         // accepted by newly saved journals
	DocumentURL      string        // format string, gets the document id
	PlaceholderImage string        // replaces missing images
	Secret           string        // mixed into login token keys
	SubmitTimeout    time.Duration // after that, a first submission is given up
	TokenTTL         time.Duration

	Now func() time.Time // for testing
}

func (c *CoreDB) Init(sessionStore scs.Store, cookiePath string) error {

	if c.Secret == "" {
		var err error
		c.Secret, err = util.RandomString32()
		if err != nil {
			return fmt.Errorf("error generating random secret: %w", err)
		}
		log.Warn().Msg("generating random secret, login tokens won't survive a restart")
	}

	if c.DocumentURL == "" {
		c.DocumentURL = "/document/%d/"
	}
	if c.PlaceholderImage == "" {
		c.PlaceholderImage = "img/error.png"
	}
	if c.SubmitTimeout == 0 {
		c.SubmitTimeout = 2 * time.Minute
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 10 * time.Minute
	}

	c.SessionManager = scs.New()
	if sessionStore != nil {
		c.SessionManager.Store = sessionStore
	}
	c.SessionManager.Cookie.Path = cookiePath + "/"
	c.SessionManager.Cookie.Persist = false
	c.SessionManager.Cookie.SameSite = http.SameSiteLaxMode
	c.SessionManager.Cookie.Secure = false // else running behind a http proxy fails
	c.SessionManager.IdleTimeout = 12 * time.Hour
	c.SessionManager.Lifetime = 720 * time.Hour

	return nil
}

// createOrGet runs fn in a transaction. If a concurrent transaction has inserted a row with the same unique key after
// fn looked for it, fn is run once more and finds that row. So fn must not keep state across runs.
func (c *CoreDB) createOrGet(ctx context.Context, fn func(tx Tx) error) error {
	err := c.Update(ctx, fn)
	if errors.Is(err, ErrDuplicate) {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("concurrent insert, running again")
		err = c.Update(ctx, fn)
	}
	return err
}

func (c *CoreDB) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
