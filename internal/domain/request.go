package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RequestStatus is the externally observable lifecycle state of one
// keyword request. Terminal states for a run are COMPLETED, FAILED and IDLE.
type RequestStatus string

const (
	StatusIdle       RequestStatus = "IDLE"
	StatusProcessing RequestStatus = "PROCESSING"
	StatusCompleted  RequestStatus = "COMPLETED"
	StatusFailed     RequestStatus = "FAILED"
)

// Request is one keyword-scoped unit of work owned by the external caller.
// The pipeline only advances Status, BronzeProcessed and LastRunAt.
type Request struct {
	ID              int64
	Keyword         string
	Status          RequestStatus
	BronzeProcessed bool
	StartDate       *time.Time
	EndDate         *time.Time
	LastRunAt       *time.Time
}

// ErrRunLocked reports that another pipeline run already holds the
// advisory lock for the same request id.
var ErrRunLocked = errors.New("pipeline run already active for request")

// InvalidRequestIDError reports a request id token that could not be
// parsed into a positive integer.
type InvalidRequestIDError struct {
	Raw string
}

func (e *InvalidRequestIDError) Error() string {
	return fmt.Sprintf("invalid request id %q", e.Raw)
}

// ParseRequestID validates a request id at the process boundary. Identifiers
// arrive as strings from the caller; nothing downstream accepts one that has
// not passed through here.
func ParseRequestID(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, &InvalidRequestIDError{Raw: raw}
	}
	return id, nil
}
