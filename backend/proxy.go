package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/ojsbridge/core"
)

// proxyJournals relays the journal list of an OJS installation, so the editor can offer a journal registration form.
func proxyJournals(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	var ojsURL = req.FormValue("url")
	if ojsURL == "" {
		return fmt.Errorf("%w: url", core.ErrInvalid)
	}
	body, err := ctx.db.Journals(req.Context(), ojsURL, req.FormValue("key"))
	if err != nil {
		return err
	}
	return writeRaw(w, body)
}

func jsonValue(req *http.Request, name, fallback string) (json.RawMessage, error) {
	var value = req.PostFormValue(name)
	if value == "" {
		value = fallback
	}
	if !json.Valid([]byte(value)) {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalid, name)
	}
	return json.RawMessage(value), nil
}

// baseURL returns the url under which the browser reached us.
func baseURL(req *http.Request) string {
	var scheme = "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + req.Host
}

func authorSubmit(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	documentID, err := formInt(req, "doc_id")
	if err != nil {
		return err
	}

	// the remaining values are only required for a first submission
	journalID, _ := strconv.Atoi(req.PostFormValue("journal_id"))
	templateID, _ := strconv.Atoi(req.PostFormValue("template_id"))

	content, err := jsonValue(req, "content", "{}")
	if err != nil {
		return err
	}
	bibliography, err := jsonValue(req, "bibliography", "{}")
	if err != nil {
		return err
	}

	var imageIDs []int
	for _, value := range req.PostForm["image_ids[]"] {
		id, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: image_ids", core.ErrInvalid)
		}
		imageIDs = append(imageIDs, id)
	}

	body, err := ctx.db.AuthorSubmit(req.Context(), ctx.User, &core.FirstSubmission{
		JournalID:    journalID,
		DocumentID:   documentID,
		TemplateID:   templateID,
		Title:        req.PostFormValue("title"),
		Abstract:     req.PostFormValue("abstract"),
		Content:      content,
		Bibliography: bibliography,
		ImageIDs:     imageIDs,
		FirstName:    req.PostFormValue("firstname"),
		LastName:     req.PostFormValue("lastname"),
		Affiliation:  req.PostFormValue("affiliation"),
		AuthorURL:    req.PostFormValue("author_url"),
		FidusURL:     baseURL(req),
	})
	if err != nil {
		return err
	}
	return writeRaw(w, body)
}

func reviewerSubmit(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	documentID, err := formInt(req, "doc_id")
	if err != nil {
		return err
	}

	body, err := ctx.db.ReviewerSubmit(req.Context(), ctx.User, documentID, core.ReviewerRecommendation{
		EditorMessage:       req.PostFormValue("editor_message"),
		EditorAuthorMessage: req.PostFormValue("editor_author_message"),
		Recommendation:      req.PostFormValue("recommendation"),
	})
	if err != nil {
		return err
	}
	return writeRaw(w, body)
}

func copyeditDraftSubmit(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	documentID, err := formInt(req, "doc_id")
	if err != nil {
		return err
	}

	body, err := ctx.db.CopyeditDraftSubmit(req.Context(), ctx.User, documentID)
	if err != nil {
		return err
	}
	return writeRaw(w, body)
}
