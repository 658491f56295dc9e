package supabase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spigell/roomeo/internal/housing"
)

// ErrNotFound is returned when a lookup matched no rows.
var ErrNotFound = housing.ErrNotFound

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: status %d: %s", e.Status, e.Message)
}

// parseAPIError understands both the PostgREST and the auth error bodies.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var payload struct {
		Code             any    `json:"code"`
		Message          string `json:"message"`
		Details          string `json:"details"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	if payload.Code != nil {
		apiErr.Code = strings.TrimSpace(fmt.Sprintf("%v", payload.Code))
	}
	if payload.Error != "" && apiErr.Code == "" {
		apiErr.Code = payload.Error
	}

	for _, candidate := range []string{payload.Message, payload.ErrorDescription, payload.Msg, payload.Details} {
		if strings.TrimSpace(candidate) != "" {
			apiErr.Message = strings.TrimSpace(candidate)
			break
		}
	}

	return apiErr
}
