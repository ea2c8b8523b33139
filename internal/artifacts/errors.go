package artifacts

import "errors"

var (
	// ErrNotFound indicates no complete bundle exists at the store location.
	ErrNotFound = errors.New("artifact bundle not found")
	// ErrRemoteFetch indicates a remote store could not deliver the bundle.
	ErrRemoteFetch = errors.New("remote artifact fetch failed")
	// ErrCorruptBundle indicates a bundle file could not be decoded.
	ErrCorruptBundle = errors.New("corrupt artifact bundle")
	// ErrReadOnly indicates the store does not accept writes.
	ErrReadOnly = errors.New("artifact store is read-only")
	// ErrReplicaFailed indicates the primary store saved the bundle but a
	// replica did not.
	ErrReplicaFailed = errors.New("artifact replica save failed")
)
