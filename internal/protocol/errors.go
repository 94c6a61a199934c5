package protocol

import "fmt"

const (
	// Region registry.
	ErrDuplicateRegion = "E_DUPLICATE_REGION"
	ErrLastRegion      = "E_LAST_REGION"

	// Editor / connection invariants.
	ErrDuplicateConnection   = "E_DUPLICATE_CONNECTION"
	ErrSelfConnection        = "E_SELF_CONNECTION"
	ErrCrossRegionConnection = "E_CROSS_REGION_CONNECTION"

	// Path-finding pipeline.
	ErrNoOriginOrDestination = "E_NO_ORIGIN_OR_DESTINATION"
	ErrNoConnections         = "E_NO_CONNECTIONS"
	ErrPathNotFound          = "E_PATH_NOT_FOUND"

	// Service layer.
	ErrServiceUnavailable = "E_SERVICE_UNAVAILABLE"
	ErrResetFailed        = "E_RESET_FAILED"
	ErrCancelled          = "E_CANCELLED"

	// Validation.
	ErrInvalidCoordinate = "E_INVALID_COORDINATE"
	ErrInvalidConfig     = "E_INVALID_CONFIG"

	// Generic.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrDuplicateRegion:       {},
	ErrLastRegion:            {},
	ErrDuplicateConnection:   {},
	ErrSelfConnection:        {},
	ErrCrossRegionConnection: {},
	ErrNoOriginOrDestination: {},
	ErrNoConnections:         {},
	ErrPathNotFound:          {},
	ErrServiceUnavailable:    {},
	ErrResetFailed:           {},
	ErrCancelled:             {},
	ErrInvalidCoordinate:     {},
	ErrInvalidConfig:         {},
	ErrBadRequest:            {},
	ErrInternal:              {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// Error is the single failure shape workers surface to the UI layer: one
// flat code plus a human-readable message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the protocol code from err, or E_INTERNAL for foreign
// errors caught at a worker boundary.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := err.(*Error); ok {
		return pe.Code
	}
	return ErrInternal
}
