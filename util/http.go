package util

import (
	"net/http"
	"strings"
)

// prefixWriter prepends the prefix to local redirects, like the 303 after a login.
type prefixWriter struct {
	http.ResponseWriter
	prefix string // without trailing slash
}

func (w prefixWriter) WriteHeader(statusCode int) {
	if location := w.Header().Get("Location"); strings.HasPrefix(location, "/") && !strings.HasPrefix(location, "//") {
		w.Header().Set("Location", w.prefix+location)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// HandlePrefix mounts handler at prefix. The handler sees paths without the prefix, and its absolute redirects get the prefix.
// An empty prefix mounts handler at the root.
func HandlePrefix(mux *http.ServeMux, prefix string, handler http.Handler) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		mux.Handle("/", handler)
		return
	}
	mux.Handle(prefix+"/", http.StripPrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handler.ServeHTTP(prefixWriter{w, prefix}, req)
	})))
}
