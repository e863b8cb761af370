package backend

import (
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/ojsbridge/core"
)

func saveJournal(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	ojsJID, err := formInt(req, "ojs_jid")
	if err != nil {
		return err
	}
	editorID, err := formInt(req, "editor_id")
	if err != nil {
		return err
	}

	var journal = &core.Journal{
		OJSURL:   req.PostFormValue("ojs_url"),
		OJSKey:   req.PostFormValue("ojs_key"),
		OJSJID:   ojsJID,
		Name:     strings.TrimSpace(req.PostFormValue("name")),
		EditorID: editorID,
	}
	if journal.OJSURL == "" || journal.OJSKey == "" {
		return core.ErrInvalid
	}

	created, err := ctx.db.SaveJournal(req.Context(), journal, nil)
	if err != nil {
		return err
	}
	return writeJSON(w, createdStatus(created), map[string]int{"id": journal.ID})
}

type userResponse struct {
	UserID   int    `json:"user_id,omitempty"`
	UserName string `json:"user_name,omitempty"`
}

func getUser(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	user, err := ctx.db.GetUserByEmail(req.Context(), req.PostFormValue("email"))
	switch {
	case errors.Is(err, core.ErrNotFound):
		return writeJSON(w, http.StatusOK, userResponse{})
	case err != nil:
		return err
	}
	return writeJSON(w, http.StatusOK, userResponse{
		UserID:   user.ID,
		UserName: user.Username,
	})
}
