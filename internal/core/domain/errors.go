package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Document operations report a missing doc_id as found == false
	// instead; this error is used by lookups that have no such flag.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation indicates a document was rejected: the title is too
	// short after normalisation or the text produced no chunks.
	ErrValidation = errors.New("validation failed")

	// ErrSchema indicates a loaded table has no recognisable text column.
	// Callers must not proceed with a partially loaded table.
	ErrSchema = errors.New("schema error")

	// ErrIndexBuild indicates the semantic index could not be built.
	// The previously installed index (or its absence) is left untouched.
	ErrIndexBuild = errors.New("index build failed")

	// ErrSourceMissing indicates the backing row source cannot be located.
	ErrSourceMissing = errors.New("document source not found")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or cannot be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUnsupportedType indicates an unknown provider, backend or file type.
	ErrUnsupportedType = errors.New("unsupported type")
)
