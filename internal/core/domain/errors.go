package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// The diff cache relies on this to detect losing a write race.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown file format or extractor type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the language-model capability is not
	// configured. Callers fall back to the deterministic local path.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrMissingReference indicates a job lacks the file or document
	// reference its type requires.
	ErrMissingReference = errors.New("job missing required reference")
)
