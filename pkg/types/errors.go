package types

import "errors"

// Domain errors for type validation
var (
	ErrInvalidChunkID       = errors.New("invalid chunk ID")
	ErrMissingDocumentID    = errors.New("document ID is required")
	ErrInvalidScore         = errors.New("score must be between 0 and 1")
	ErrEmptyContent         = errors.New("content cannot be empty")
	ErrInconsistentResponse = errors.New("unsuccessful response must carry no results")
)
