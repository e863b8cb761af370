package backend

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

func getDocInfo(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	documentID, err := formInt(req, "doc_id")
	if err != nil {
		return err
	}

	// only required for unsaved documents
	templateID, _ := strconv.Atoi(req.PostFormValue("template_id"))

	info, err := ctx.db.GetDocInfo(req.Context(), ctx.User, documentID, templateID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, info)
}
