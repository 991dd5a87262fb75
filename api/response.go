package api

import (
	"encoding/json"
)

// Response represents the JSON envelope returned by the agent's REST API
// and by the config-sync control plane.
type Response struct {
	Type string `json:"type"`

	// Valid only for Sync responses.
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`

	// Valid only for Error responses.
	Code  int    `json:"error_code"`
	Error string `json:"error"`

	Metadata json.RawMessage `json:"metadata"`
}

// MetadataAsStruct decodes the response metadata into the provided target.
func (r *Response) MetadataAsStruct(target any) error {
	return json.Unmarshal(r.Metadata, target)
}
