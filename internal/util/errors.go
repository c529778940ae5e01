package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNetwork indicates a transport or connectivity failure
	ErrNetwork = errors.New("network failure")

	// ErrDecode indicates a malformed or unexpected response
	ErrDecode = errors.New("malformed response")

	// ErrInvalidRef indicates a bad URL or identifier construction
	ErrInvalidRef = errors.New("invalid reference")

	// ErrStorage indicates a local persistence write failure
	ErrStorage = errors.New("storage failure")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a duplicate download attempt
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotOnWifi indicates downloads are restricted to wifi and the
	// current network is not wifi
	ErrNotOnWifi = errors.New("not connected to wifi")
)
