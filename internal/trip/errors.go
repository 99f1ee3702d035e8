package trip

import (
	"errors"
	"strings"
)

// Sentinel errors for the planning pipeline.
var (
	// ErrIncompleteExtraction indicates the request could not be parsed into all six fields.
	ErrIncompleteExtraction = errors.New("incomplete extraction")
	// ErrExternalService indicates the text generator or the geocoder failed or timed out.
	ErrExternalService = errors.New("external service unavailable")
	// ErrRouteNotFound indicates one of the two places could not be resolved.
	ErrRouteNotFound = errors.New("route not found")
	// ErrInvalidArgument indicates a value is out of its allowed range.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Status is the outcome of a planning request as reported to the user.
type Status string

const (
	StatusOK                   Status = "OK"
	StatusIncompleteExtraction Status = "INCOMPLETE_EXTRACTION"
	StatusExternalServiceError Status = "EXTERNAL_SERVICE_ERROR"
	StatusRouteNotFound        Status = "ROUTE_NOT_FOUND"
	StatusInvalidArgument      Status = "INVALID_ARGUMENT"
	StatusInternal             Status = "INTERNAL"
)

// FieldError describes a problem with a single parsed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error provides the user-facing detail for a failed planning request.
type Error struct {
	Message string       // Human-readable message
	Fields  []FieldError // Offending fields, if any
	Err     error        // One of the sentinel errors
	Cause   error        // Underlying error, if any
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Status returns the status matching the wrapped sentinel.
func (e *Error) Status() Status {
	return StatusOf(e.Err)
}

// StatusOf maps any error to a Status. A nil error is StatusOK.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrIncompleteExtraction):
		return StatusIncompleteExtraction
	case errors.Is(err, ErrInvalidArgument):
		return StatusInvalidArgument
	case errors.Is(err, ErrRouteNotFound):
		return StatusRouteNotFound
	case errors.Is(err, ErrExternalService):
		return StatusExternalServiceError
	default:
		return StatusInternal
	}
}

// NewIncomplete reports the labels the extractor could not recover.
func NewIncomplete(missing ...string) *Error {
	fields := make([]FieldError, 0, len(missing))
	for _, m := range missing {
		fields = append(fields, FieldError{Field: m, Message: "missing"})
	}
	return &Error{
		Message: "couldn't extract all travel details (missing " + strings.Join(missing, ", ") + "), please rephrase your input",
		Fields:  fields,
		Err:     ErrIncompleteExtraction,
	}
}

// NewInvalid reports out-of-range values.
func NewInvalid(message string, fields ...FieldError) *Error {
	return &Error{
		Message: message,
		Fields:  fields,
		Err:     ErrInvalidArgument,
	}
}

// NewRouteNotFound reports a city pair that could not be resolved.
func NewRouteNotFound(from, to string, cause error) *Error {
	return &Error{
		Message: "couldn't get route info from " + from + " to " + to,
		Err:     ErrRouteNotFound,
		Cause:   cause,
	}
}

// NewExternal reports a failed or timed-out call to an external service.
func NewExternal(service string, cause error) *Error {
	return &Error{
		Message: service + " is unavailable, please try again later",
		Err:     ErrExternalService,
		Cause:   cause,
	}
}
