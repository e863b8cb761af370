package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlePrefix(t *testing.T) {
	var mux = http.NewServeMux()
	HandlePrefix(mux, "/bridge/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/redirect" {
			http.Redirect(w, r, "/document/3/", http.StatusSeeOther)
			return
		}
		w.Write([]byte(r.URL.Path))
	}))

	var rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bridge/ojs/get_doc_info", nil))
	assert.Equal(t, "/ojs/get_doc_info", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bridge/redirect", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/bridge/document/3/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePrefixRoot(t *testing.T) {
	var mux = http.NewServeMux()
	HandlePrefix(mux, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/document/3/", http.StatusSeeOther)
	}))

	var rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ojs/revision/1/1.0.0", nil))
	assert.Equal(t, "/document/3/", rec.Header().Get("Location"))
}
