package domain

import "errors"

// Pipeline errors. Failures wrap one of these so callers can use errors.Is.
var (
	// ErrUnsupportedFormat indicates the file extension is not in the allow-list.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMalformedContent indicates the file could not be parsed.
	ErrMalformedContent = errors.New("malformed content")

	// ErrEmptyDocument is a warning: extraction or chunking produced no content.
	// Processing stops, but the session stays usable.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrInvalidChunking indicates a chunking configuration that cannot be applied.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrEmbeddingBackend indicates the embedding model could not be reached
	// or returned an unusable response. The index is left in its prior state.
	ErrEmbeddingBackend = errors.New("embedding backend error")

	// ErrGeneration indicates the language model call failed.
	ErrGeneration = errors.New("generation error")
)
