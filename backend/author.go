package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func addAuthor(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := paramInt(params, "submission_id")
	if err != nil {
		return err
	}
	ojsUID, err := formInt(req, "user_id")
	if err != nil {
		return err
	}

	created, err := ctx.db.GrantAuthor(req.Context(), req.PostFormValue("key"), submissionID, ojsUID, identity(req))
	if err != nil {
		return err
	}
	return writeJSON(w, createdStatus(created), struct{}{})
}

func removeAuthor(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := paramInt(params, "submission_id")
	if err != nil {
		return err
	}
	ojsUID, err := formInt(req, "user_id")
	if err != nil {
		return err
	}

	if err := ctx.db.RevokeAuthor(req.Context(), req.PostFormValue("key"), submissionID, ojsUID); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, struct{}{})
}
