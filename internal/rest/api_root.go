package rest

import (
	"net/http"

	"github.com/blackbox-racing/blackboxd/internal/rest/response"
)

func (*Server) apiRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		_ = response.NotFound().Render(w)

		return
	}

	_ = response.SyncResponse(true, []string{"/1.0"}).Render(w)
}

func (s *Server) apiRoot10(w http.ResponseWriter, _ *http.Request) {
	status := s.updater.Status()

	resp := map[string]any{
		"environment": map[string]any{
			"version": status.CurrentVersion,
		},
	}

	_ = response.SyncResponse(true, resp).Render(w)
}
