package server

import (
	"net/http"

	"github.com/me/mediafront/pkg/model"
)

// handleSessionWhoAmI returns the resolved profile of the browser session.
func (s *Server) handleSessionWhoAmI(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	profile, ok := s.ui.ResolveProfile(r)
	if !ok {
		respondError(w, reqID, http.StatusInternalServerError, &model.APIError{
			Code:    model.ErrInternal,
			Message: "no session",
		})
		return
	}
	respondOK(w, reqID, profile)
}
