// Package backend serves the endpoints which are called by OJS and by the editor of local users.
package backend

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/wansing/ojsbridge/core"
)

var errNotLoggedIn = errors.New("not logged in")

// sessionKey stores the local user id in the session.
const sessionKey = "uid"

// AdminKeyHeader must carry the admin key on admin endpoints.
const AdminKeyHeader = "X-Admin-Key"

type handler func(http.ResponseWriter, *http.Request, *context, httprouter.Params) error

type guard int

const (
	byJournalKey guard = iota // core checks the journal key or the login token
	loggedIn
	byAdminKey
)

// we need the CoreDB in the handlers
type context struct {
	db       *core.CoreDB
	adminKey string
	User     *core.User // only on loggedIn routes
}

func middleware(db *core.CoreDB, key string, g guard, f handler) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {

		var ctx = &context{
			db:       db,
			adminKey: key,
		}

		var err error
		switch g {
		case loggedIn:
			err = ctx.loadUser(req)
		case byAdminKey:
			err = ctx.checkAdminKey(req)
		}

		if err == nil {
			err = f(w, req, ctx, params)
		}

		if err != nil {
			writeError(w, req, err)
		}
	}
}

func (ctx *context) loadUser(req *http.Request) error {
	var uid = ctx.db.SessionManager.GetInt(req.Context(), sessionKey)
	if uid == 0 {
		return errNotLoggedIn
	}
	user, err := ctx.db.GetUser(req.Context(), uid)
	if errors.Is(err, core.ErrNotFound) {
		return errNotLoggedIn
	}
	if err != nil {
		return err
	}
	ctx.User = user
	return nil
}

func (ctx *context) checkAdminKey(req *http.Request) error {
	var key = req.Header.Get(AdminKeyHeader)
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(ctx.adminKey)) != 1 {
		return core.ErrAuthentication
	}
	return nil
}

// NewRouter returns the router for the /ojs and /proxy endpoints. The admin endpoints are only served if adminKey is not empty.
func NewRouter(db *core.CoreDB, adminKey string) http.Handler {

	var router = httprouter.New()

	var handle = func(method, path string, g guard, f handler) {
		router.Handle(method, path, middleware(db, adminKey, g, f))
	}

	// called by OJS with the journal key
	handle(http.MethodPost, "/ojs/create_copy/:submission_id", byJournalKey, createCopy)
	handle(http.MethodPost, "/ojs/add_reviewer/:submission_id/:version", byJournalKey, addReviewer)
	handle(http.MethodPost, "/ojs/accept_reviewer/:submission_id/:version", byJournalKey, acceptReviewer)
	handle(http.MethodPost, "/ojs/remove_reviewer/:submission_id/:version", byJournalKey, removeReviewer)
	handle(http.MethodPost, "/ojs/add_editor/:submission_id", byJournalKey, addEditor)
	handle(http.MethodPost, "/ojs/remove_editor/:submission_id", byJournalKey, removeEditor)
	handle(http.MethodPost, "/ojs/add_author/:submission_id", byJournalKey, addAuthor)
	handle(http.MethodPost, "/ojs/remove_author/:submission_id", byJournalKey, removeAuthor)
	handle(http.MethodGet, "/ojs/get_login_token", byJournalKey, getLoginToken)
	handle(http.MethodGet, "/ojs/check_revision/:submission_id/:version", byJournalKey, checkRevision)

	// called by the browser, with a login token
	handle(http.MethodGet, "/ojs/revision/:submission_id/:version", byJournalKey, openRevision)
	handle(http.MethodPost, "/ojs/revision/:submission_id/:version", byJournalKey, openRevision)

	// called by the editor of a local user
	handle(http.MethodPost, "/ojs/get_doc_info", loggedIn, getDocInfo)
	handle(http.MethodGet, "/proxy/journals", loggedIn, proxyJournals)
	handle(http.MethodPost, "/proxy/author_submit", loggedIn, authorSubmit)
	handle(http.MethodPost, "/proxy/reviewer_submit", loggedIn, reviewerSubmit)
	handle(http.MethodPost, "/proxy/copyedit_draft_submit", loggedIn, copyeditDraftSubmit)

	if adminKey != "" {
		handle(http.MethodPost, "/ojs/save_journal", byAdminKey, saveJournal)
		handle(http.MethodPost, "/ojs/get_user", byAdminKey, getUser)
	}

	return router
}

// httpStatus maps an error to a status code and a message which can be shown to the caller.
func httpStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errNotLoggedIn):
		return http.StatusUnauthorized, "Not logged in"
	case errors.Is(err, core.ErrAuthentication):
		return http.StatusForbidden, "Wrong key"
	case errors.Is(err, core.ErrAuthorization):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrMalformedVersion), errors.Is(err, core.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrDuplicate):
		return http.StatusConflict, err.Error()
	case errors.Is(err, core.ErrRemoteTerminal):
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeError(w http.ResponseWriter, req *http.Request, err error) {
	status, msg := httpStatus(err)
	var log = zerolog.Ctx(req.Context())
	switch {
	case errors.Is(err, core.ErrUnconfiguredRole):
		log.Error().Err(err).Msg("role table is incomplete")
	case status >= 500:
		log.Error().Err(err).Int("status", status).Msg("request failed")
	default:
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// writeRaw relays a JSON response of OJS.
func writeRaw(w http.ResponseWriter, body []byte) error {
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write(body)
	return err
}

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

func paramInt(params httprouter.Params, name string) (int, error) {
	i, err := strconv.Atoi(params.ByName(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", core.ErrInvalid, name)
	}
	return i, nil
}

// formInt reads an integer from the query or the form body.
func formInt(req *http.Request, name string) (int, error) {
	i, err := strconv.Atoi(req.FormValue(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", core.ErrInvalid, name)
	}
	return i, nil
}

// formBool is true if the value is a nonzero integer.
func formBool(req *http.Request, name string) bool {
	i, _ := strconv.Atoi(req.FormValue(name))
	return i != 0
}

func identity(req *http.Request) core.Identity {
	return core.Identity{
		Email:    req.FormValue("email"),
		Username: req.FormValue("username"),
	}
}
