package domain

import "errors"

var (
	// ErrResourceNotFound corresponds to the server's resource-not-found
	// fault. The runtime map provisioner matches it to fall back from
	// recovery to creation.
	ErrResourceNotFound = errors.New("MgResourceNotFoundException")

	// ErrSessionExpired corresponds to the server's expired-session fault.
	ErrSessionExpired = errors.New("MgSessionExpiredException")

	ErrNoMapDefinition = errors.New("no map definition found in application definition")
)

// ViewerError is a fatal, user visible error. Message is already localized.
type ViewerError struct {
	Message string
}

func (e *ViewerError) Error() string {
	return e.Message
}

func NewViewerError(message string) *ViewerError {
	return &ViewerError{Message: message}
}

// IsSessionExpiredError reports whether err, anywhere in its chain, signals
// an expired server session.
func IsSessionExpiredError(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
