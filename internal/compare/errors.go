package compare

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ServiceError is a non-2xx answer from the comparison service.
type ServiceError struct {
	StatusCode int
	Detail     string // human-readable detail from the error payload, may be empty
	Body       string // raw body for logging
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("comparison failed with status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("comparison failed with status %d: %s", e.StatusCode, e.Body)
}

// parseServiceError builds a ServiceError. Only a string "detail" field is
// taken as the human-readable message; any other shape leaves Detail empty.
func parseServiceError(status int, body []byte) *ServiceError {
	se := &ServiceError{StatusCode: status, Body: strings.TrimSpace(string(body))}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return se
	}
	var detail string
	if err := json.Unmarshal(raw["detail"], &detail); err == nil {
		se.Detail = strings.TrimSpace(detail)
	}
	return se
}

// DetailFromError returns the service supplied message carried by err.
func DetailFromError(err error) (string, bool) {
	var se *ServiceError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail, true
	}
	return "", false
}
