package dashboard

import (
	"encoding/json"
	"errors"
)

// Errors returned by the dashboard client.
var (
	ErrAPI          = errors.New("dashboard reported an error")
	ErrTaskNotFound = errors.New("task not found")
)

// APIError is an error envelope the server sent with a 2xx status.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return ErrAPI.Error()
	}
	return e.Message
}

// Is reports whether target is ErrAPI.
func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CheckEnvelope returns an *APIError when body is an object whose status is
// "error". Any other body passes. It fits task.Job.Check.
func CheckEnvelope(body json.RawMessage) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if env.Status == "error" {
		return &APIError{Message: env.Message}
	}
	return nil
}
