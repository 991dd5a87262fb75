// Package response renders the agent's REST API response envelope.
package response

import (
	"encoding/json"
	"net/http"
)

// Response represents an API response.
type Response interface {
	Render(w http.ResponseWriter) error
	Code() int
}

// Sync response.
type syncResponse struct {
	success  bool
	metadata any
	code     int
}

// EmptySyncResponse represents an empty syncResponse.
var EmptySyncResponse = &syncResponse{success: true, metadata: make(map[string]any)}

// SyncResponse returns a new syncResponse with the success and metadata fields
// set to the provided values.
func SyncResponse(success bool, metadata any) Response {
	return &syncResponse{success: success, metadata: metadata}
}

func (r *syncResponse) Render(w http.ResponseWriter) error {
	code := r.code
	if code == 0 {
		code = http.StatusOK
	}

	status := "Success"
	if !r.success {
		status = "Failure"
	}

	body := map[string]any{
		"type":        "sync",
		"status":      status,
		"status_code": code,
		"metadata":    r.metadata,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	return json.NewEncoder(w).Encode(body)
}

func (r *syncResponse) Code() int {
	if r.code == 0 {
		return http.StatusOK
	}

	return r.code
}

// Error response.
type errorResponse struct {
	code int
	msg  string
}

// BadRequest returns a bad request response (400) with the given error.
func BadRequest(err error) Response {
	return &errorResponse{code: http.StatusBadRequest, msg: err.Error()}
}

// InternalError returns an internal error response (500) with the given error.
func InternalError(err error) Response {
	return &errorResponse{code: http.StatusInternalServerError, msg: err.Error()}
}

// NotFound returns a not found response (404).
func NotFound() Response {
	return &errorResponse{code: http.StatusNotFound, msg: "not found"}
}

// NotImplemented returns a not implemented response (501).
func NotImplemented() Response {
	return &errorResponse{code: http.StatusNotImplemented, msg: "not implemented"}
}

func (r *errorResponse) Render(w http.ResponseWriter) error {
	body := map[string]any{
		"type":       "error",
		"error_code": r.code,
		"error":      r.msg,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(r.code)

	return json.NewEncoder(w).Encode(body)
}

func (r *errorResponse) Code() int {
	return r.code
}
