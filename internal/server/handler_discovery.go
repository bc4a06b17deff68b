package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        s.config.Site.Title,
		Version:     Version,
		Description: "Media site front end: home feed and session identity",
		Endpoints: []endpointInfo{
			{"/", []string{"GET"}, "Home page"},
			{"/fragments/empty-media", []string{"GET"}, "Empty-state fragment, rendered once the profile is known"},
			{"/signout", []string{"POST"}, "End the backend session"},
			{"/api/session/whoami", []string{"GET"}, "Resolved profile of this browser session"},
			{"/healthz", []string{"GET"}, "Server health and version"},
			{"/metrics", []string{"GET"}, "Prometheus metrics"},
		},
	})
}
