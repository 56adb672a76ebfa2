package contacts

import "errors"

// Sentinel errors for the contacts service layer.
var (
	ErrNotFound      = errors.New("contact not found")
	ErrEmptyValue    = errors.New("contact has no value")
	ErrUnknownMethod = errors.New("unknown contact method")
)
