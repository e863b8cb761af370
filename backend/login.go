package backend

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// getLoginToken is called by the OJS server. The token is then handed to the browser, which calls openRevision with it.
func getLoginToken(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := formInt(req, "fidus_id")
	if err != nil {
		return err
	}
	ojsUID, err := formInt(req, "user_id")
	if err != nil {
		return err
	}

	token, err := ctx.db.IssueLoginToken(req.Context(), req.FormValue("key"), submissionID, ojsUID, req.FormValue("version"), formBool(req, "is_editor"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// openRevision logs the user in and redirects to the revision document.
func openRevision(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := paramInt(params, "submission_id")
	if err != nil {
		return err
	}

	user, documentID, err := ctx.db.OpenRevision(req.Context(), submissionID, params.ByName("version"), req.FormValue("token"))
	if err != nil {
		return err
	}

	// prevent session fixation
	if err := ctx.db.SessionManager.RenewToken(req.Context()); err != nil {
		return err
	}
	ctx.db.SessionManager.Put(req.Context(), sessionKey, user.ID)

	http.Redirect(w, req, fmt.Sprintf(ctx.db.DocumentURL, documentID), http.StatusSeeOther)
	return nil
}

// checkRevision answers "1" if the revision exists, else "0".
func checkRevision(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := paramInt(params, "submission_id")
	if err != nil {
		return err
	}
	ojsUID, err := formInt(req, "user_id")
	if err != nil {
		return err
	}

	exists, err := ctx.db.CheckRevision(req.Context(), req.FormValue("key"), submissionID, params.ByName("version"), ojsUID, formBool(req, "is_editor"))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if exists {
		_, err = w.Write([]byte("1"))
	} else {
		_, err = w.Write([]byte("0"))
	}
	return err
}
