package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrInvalid
	ErrNotFound
	ErrUnsupportedFormat
	ErrMalformedContent
	ErrEmptyDocument
	ErrInvalidChunking
	ErrEmbeddingBackend
	ErrGeneration
	ErrUploadTooLarge
	ErrInternal
)
