// Package device holds the core types shared by every address-class
// registry: device identity, the lifecycle state machine, region
// descriptors, the backend contract, and the device wrapper that ties
// them together under a per-device lock.
package device

import "errors"

// Error taxonomy from spec.md §7. Compare with errors.Is; these are
// sentinel values, never wrapped with additional dynamic context beyond
// fmt.Errorf("%w", ...).
var (
	// ErrNotFound is returned when an address has no registered device.
	ErrNotFound = errors.New("device: not found")
	// ErrBadState is returned when a device exists but is Removing or
	// Removed, or a removal was attempted on a non-Active device.
	ErrBadState = errors.New("device: bad state")
	// ErrInvalidInput is returned for malformed configuration.
	ErrInvalidInput = errors.New("device: invalid input")
	// ErrUnsupported is returned when a feature is requested on an
	// architecture or configuration that doesn't support it.
	ErrUnsupported = errors.New("device: unsupported")
	// ErrNoMemory is returned when the IVC range allocator is exhausted.
	ErrNoMemory = errors.New("device: no memory")
	// ErrAlreadyExists is returned for notification registration on an
	// already-registered device id.
	ErrAlreadyExists = errors.New("device: already exists")
	// ErrBadAddress is returned when a dummy device rejects an
	// unsupported access width or an out-of-range offset.
	ErrBadAddress = errors.New("device: bad address")
)
