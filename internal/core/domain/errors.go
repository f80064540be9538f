package domain

import (
	"errors"
	"fmt"
)

// Error classes. Concrete errors below wrap one of these so callers can
// branch on the class with errors.Is.
var (
	// ErrConfiguration indicates a fatal, non-retryable setup problem.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstream indicates an embedding or generation call failed.
	ErrUpstream = errors.New("upstream failure")
)

// Domain errors represent business logic failures.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no extractor handles the upload's MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrExtractionFailed indicates an upload of a supported type whose text
	// could not be extracted (corrupt or encrypted PDF, unreadable markup).
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrTooLarge indicates an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("upload too large")

	// ErrNoRelevantInformation indicates retrieval succeeded but no chunk
	// qualified for the query and scope.
	ErrNoRelevantInformation = errors.New("no relevant information found in the uploaded documents")

	// ErrNoDocumentsIndexed indicates the vector index is empty.
	ErrNoDocumentsIndexed = errors.New("no documents indexed")
)

// Configuration errors.
var (
	// ErrAlreadyExists indicates a document identifier is being reused.
	ErrAlreadyExists = fmt.Errorf("%w: already exists", ErrConfiguration)

	// ErrInvalidChunkConfig indicates size/overlap values that cannot chunk text.
	ErrInvalidChunkConfig = fmt.Errorf("%w: invalid chunk size or overlap", ErrConfiguration)

	// ErrDimensionMismatch indicates a vector whose length differs from the index.
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrConfiguration)
)

// Upstream errors.
var (
	// ErrEmbeddingUnavailable indicates the embedding service failed or is not configured.
	ErrEmbeddingUnavailable = fmt.Errorf("%w: embedding service unavailable", ErrUpstream)

	// ErrGenerationUnavailable indicates the generation service failed or is not configured.
	ErrGenerationUnavailable = fmt.Errorf("%w: generation service unavailable", ErrUpstream)

	// ErrRateLimited indicates a provider rate limit was exceeded.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrUpstream)
)

// IsConfigurationError reports whether err belongs to the configuration class.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsUpstreamError reports whether err belongs to the upstream failure class.
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstream)
}
