package backend

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/ojsbridge/core"
	"github.com/wansing/ojsbridge/util"
)

func createCopy(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := paramInt(params, "submission_id")
	if err != nil {
		return err
	}

	granted, err := util.ParseInts(req.PostFormValue("granted_users"))
	if err != nil {
		return fmt.Errorf("%w: granted_users", core.ErrInvalid)
	}

	rev, created, err := ctx.db.Advance(
		req.Context(),
		req.PostFormValue("key"),
		submissionID,
		req.PostFormValue("old_version"),
		req.PostFormValue("new_version"),
		granted,
	)
	if err != nil {
		return err
	}

	return writeJSON(w, createdStatus(created), map[string]interface{}{
		"version":     rev.Version.String(),
		"document_id": rev.DocumentID,
	})
}
