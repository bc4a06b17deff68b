package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all UI routes on the given router. The router
// must already run SessionMiddleware.
func (ui *UI) RegisterRoutes(r chi.Router) {
	r.Get("/", ui.HandleHome)
	r.Get("/fragments/empty-media", ui.HandleEmptyMedia)
	r.Post("/signout", ui.HandleSignOut)
}

// StaticHandler returns an http.Handler that serves static files from the given directory.
func StaticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.StripPrefix("/static/", fs)
}
