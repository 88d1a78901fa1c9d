package core

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction means the input did not contain the slot a record needs.
	ErrExtraction = errors.New("extraction failed")
	// ErrNetwork covers transport failures and timeouts talking to the backend.
	ErrNetwork = errors.New("network error")
	// ErrAuthExpired is returned when the backend rejects the credential.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrBackend is any other non-success backend answer.
	ErrBackend = errors.New("backend error")
)

// ExtractionError carries the text that could not be parsed.
type ExtractionError struct {
	Text   string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %s in %q", ErrExtraction, e.Reason, e.Text)
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// BackendError is a non-2xx answer from the expense backend.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

func (e *BackendError) Unwrap() error {
	return ErrBackend
}
