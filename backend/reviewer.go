package backend

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/ojsbridge/core"
)

// reviewMethod reads "review_method". The legacy "access_rights" value "comment" means an open review.
func reviewMethod(req *http.Request) (core.ReviewMethod, error) {
	if value := req.PostFormValue("review_method"); value != "" {
		method, ok := core.ParseReviewMethod(value)
		if !ok {
			return "", fmt.Errorf("%w: review_method", core.ErrInvalid)
		}
		return method, nil
	}
	if req.PostFormValue("access_rights") == "comment" {
		return core.Open, nil
	}
	return "", nil
}

func addReviewer(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := paramInt(params, "submission_id")
	if err != nil {
		return err
	}
	ojsUID, err := formInt(req, "user_id")
	if err != nil {
		return err
	}
	method, err := reviewMethod(req)
	if err != nil {
		return err
	}

	created, err := ctx.db.GrantReviewer(req.Context(), req.PostFormValue("key"), submissionID, params.ByName("version"), ojsUID, identity(req), method)
	if err != nil {
		return err
	}
	return writeJSON(w, createdStatus(created), struct{}{})
}

func acceptReviewer(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := paramInt(params, "submission_id")
	if err != nil {
		return err
	}
	ojsUID, err := formInt(req, "user_id")
	if err != nil {
		return err
	}
	method, err := reviewMethod(req)
	if err != nil {
		return err
	}

	created, err := ctx.db.AcceptReviewer(req.Context(), req.PostFormValue("key"), submissionID, params.ByName("version"), ojsUID, method)
	if err != nil {
		return err
	}
	return writeJSON(w, createdStatus(created), struct{}{})
}

func removeReviewer(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	submissionID, err := paramInt(params, "submission_id")
	if err != nil {
		return err
	}
	ojsUID, err := formInt(req, "user_id")
	if err != nil {
		return err
	}

	if err := ctx.db.RevokeReviewer(req.Context(), req.PostFormValue("key"), submissionID, params.ByName("version"), ojsUID); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, struct{}{})
}
