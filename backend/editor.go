package backend

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/ojsbridge/core"
	"github.com/wansing/ojsbridge/util"
)

func addEditor(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := paramInt(params, "submission_id")
	if err != nil {
		return err
	}
	ojsUID, err := formInt(req, "user_id")
	if err != nil {
		return err
	}
	role, err := formInt(req, "role")
	if err != nil {
		return err
	}
	stages, err := util.ParseInts(req.PostFormValue("stage_ids"))
	if err != nil {
		return fmt.Errorf("%w: stage_ids", core.ErrInvalid)
	}

	created, err := ctx.db.GrantEditor(req.Context(), req.PostFormValue("key"), submissionID, ojsUID, identity(req), core.Role(role), stages)
	if err != nil {
		return err
	}
	return writeJSON(w, createdStatus(created), struct{}{})
}

func removeEditor(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := paramInt(params, "submission_id")
	if err != nil {
		return err
	}
	ojsUID, err := formInt(req, "user_id")
	if err != nil {
		return err
	}

	if err := ctx.db.RevokeEditor(req.Context(), req.PostFormValue("key"), submissionID, ojsUID); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, struct{}{})
}
