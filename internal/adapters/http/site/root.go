// Package site serves the browser dashboard page.
package site

import (
	"context"
	"net/http"
)

// Register mounts the dashboard page at / and its assets under /static/.
// Other unmatched paths stay 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := http.FileServer(FS())
	mux.Handle("GET /{$}", files)
	mux.Handle("GET /static/", http.StripPrefix("/static", files))
}
