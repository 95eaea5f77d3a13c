// internal/relay/errors.go
package relay

import "errors"

var (
	// ErrMalformedWebhook: the payload could not be normalized at all.
	ErrMalformedWebhook = errors.New("relay: malformed webhook")
	// ErrValidation: a dispatch request is missing required fields.
	ErrValidation = errors.New("relay: validation failed")
	// ErrInvalidMediaType: mediaType outside {image, document, audio, video}.
	ErrInvalidMediaType = errors.New("relay: invalid media type")
	// ErrCredentialsNotConfigured: the tenant has no usable provider or CRM
	// credentials, and no global default exists.
	ErrCredentialsNotConfigured = errors.New("relay: credentials not configured")
)
