package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or normaliser type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnsupportedMIME indicates no normaliser accepts the document's MIME type.
	ErrUnsupportedMIME = errors.New("unsupported mime type")

	// ErrValidation indicates a value failed construction-time validation,
	// such as a malformed endpoint URL or an unknown HTTP method.
	ErrValidation = errors.New("validation failed")

	// ErrParseFailure indicates expected structure could not be found in
	// model output (JSON payloads, API descriptions).
	ErrParseFailure = errors.New("parse failure")

	// ErrDocumentMissing indicates a document referenced by name does not
	// exist in the project. Fatal to a generation run.
	ErrDocumentMissing = errors.New("document missing")

	// ErrStateDrift indicates the generation work queue and the requirement
	// cursor no longer point at the same group.
	ErrStateDrift = errors.New("generation state drift")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Generation and requirement extraction are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector fallback lookups are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
