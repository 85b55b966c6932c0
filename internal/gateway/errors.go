package gateway

import (
	"errors"
	"fmt"
)

// TransportError reports that the content store could not be reached or
// answered with an unexpected status. There is no automatic retry; the
// operator retries by reselecting.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: fetching %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError reports that the remote object is absent (404).
type NotFoundError struct {
	Op  string
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Op, e.URL)
}

// MalformedDocumentError reports that a fetched document cannot serve
// the operation: invalid JSON or a missing required field.
type MalformedDocumentError struct {
	Op     string
	URL    string
	Reason string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed document %s: %s: %v", e.Op, e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: malformed document %s: %s", e.Op, e.URL, e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError anywhere in its
// chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
