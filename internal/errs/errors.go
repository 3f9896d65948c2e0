package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel causes carried by recoverable warnings.
var (
	// ErrRemoteUnavailable marks a remote store call that failed or timed
	// out. The operation that raised it still succeeded locally.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrCorruptState marks a local cache slot that could not be parsed.
	// The store recovers from the backup slot or degrades to empty.
	ErrCorruptState = errors.New("corrupt local state")
)

// ValidationError rejects malformed input. Nothing is persisted.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError rejects a booking that overlaps existing bookings on the
// same physical unit.
type ConflictError struct {
	Unit       string   `json:"unit"`
	BookingIDs []string `json:"booking_ids"`
}

func (e *ConflictError) Error() string {
	if len(e.BookingIDs) == 0 {
		return fmt.Sprintf("unit %s already registered", e.Unit)
	}
	return fmt.Sprintf("unit %s already booked in that window (conflicts with %s)",
		e.Unit, strings.Join(e.BookingIDs, ", "))
}

// TransitionError rejects an illegal handoff transition. State is unchanged.
type TransitionError struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("booking %s: %s", e.BookingID, e.Reason)
}

// NotFoundError reports a lookup for an entity that does not exist.
type NotFoundError struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// Warning is a recoverable degradation: the operation succeeded, but one side
// of the store pair needs attention. Warnings travel next to results, never
// in the error position.
type Warning struct {
	Op  string
	Err error
}

func NewWarning(op string, err error) *Warning {
	return &Warning{Op: op, Err: err}
}

func (w *Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Op, w.Err)
}

func (w *Warning) Unwrap() error { return w.Err }

// StatusCode maps domain errors onto HTTP status codes at the API boundary.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		conflict   *ConflictError
		transition *TransitionError
		notFound   *NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict), errors.As(err, &transition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
