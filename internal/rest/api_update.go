package rest

import (
	"encoding/json"
	"net/http"

	"github.com/blackbox-racing/blackboxd/api"
	"github.com/blackbox-racing/blackboxd/internal/rest/response"
)

func (s *Server) apiUpdate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Return the current update status.
		_ = response.SyncResponse(true, s.updater.Status()).Render(w)
	case http.MethodPut:
		// Apply a new update configuration.
		newConfig := &api.UpdateConfig{}

		err := json.NewDecoder(r.Body).Decode(newConfig)
		if err != nil {
			_ = response.BadRequest(err).Render(w)

			return
		}

		err = newConfig.Validate()
		if err != nil {
			_ = response.BadRequest(err).Render(w)

			return
		}

		err = s.updater.SetConfig(*newConfig)
		if err != nil {
			_ = response.InternalError(err).Render(w)

			return
		}

		_ = response.EmptySyncResponse.Render(w)
	default:
		_ = response.NotImplemented().Render(w)
	}
}

func (s *Server) apiUpdateCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = response.NotImplemented().Render(w)

		return
	}

	// Run a full check cycle, bypassing the check interval.
	err := s.updater.TriggerCheck(r.Context())
	if err != nil {
		_ = response.InternalError(err).Render(w)

		return
	}

	_ = response.SyncResponse(true, s.updater.Status()).Render(w)
}
