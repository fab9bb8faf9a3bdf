package directory

import "errors"

var (
	// ErrProviderNotFound is returned when no provider matches the id
	ErrProviderNotFound = errors.New("provider not found")

	// ErrClientNotFound is returned when neither a client id nor a user
	// account id matches
	ErrClientNotFound = errors.New("client not found")

	// ErrOfferingNotFound is returned when the offering does not exist or
	// belongs to a different provider
	ErrOfferingNotFound = errors.New("service offering not found")
)
