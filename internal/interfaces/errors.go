package interfaces

import "errors"

var (
	// ErrIndexUnavailable indicates a lexical or vector index has not been
	// built or loaded yet. Callers degrade to an empty candidate set; it is
	// surfaced only when no index can produce candidates at all.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrNotInitialized indicates an append to a vector store that has not
	// been created or loaded.
	ErrNotInitialized = errors.New("vector store not initialized")

	// ErrServiceDegraded indicates the external completion service timed out
	// or exhausted its retries. The caller receives a deterministic failure
	// instead of a hang.
	ErrServiceDegraded = errors.New("completion service degraded")

	// ErrKeyNotFound indicates a missing key in the key/value store.
	ErrKeyNotFound = errors.New("key not found")

	// ErrDocumentNotFound indicates a missing document.
	ErrDocumentNotFound = errors.New("document not found")
)
