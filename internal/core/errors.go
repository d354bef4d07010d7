package core

import "errors"

// Error kinds surfaced to the transport layer. Each kind maps to a
// distinct externally observable status; anything unexpected is
// wrapped into ErrClassification by the orchestration layer.
var (
	// ErrInvalidContent means the email content is empty or blank.
	ErrInvalidContent = errors.New("email content is empty or blank")

	// ErrUnsupportedFormat means no reader matched the file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrInvalidFile means no usable text could be extracted from the file.
	ErrInvalidFile = errors.New("invalid file")

	// ErrUnknownProvider means the requested provider identifier is not
	// in the supported set.
	ErrUnknownProvider = errors.New("unknown AI provider")

	// ErrClassification means the provider call or its processing failed.
	ErrClassification = errors.New("classification failed")
)

// Value object invariant violations.
var (
	ErrConfidenceRange = errors.New("confidence must be between 0 and 1")
	ErrEmptyReply      = errors.New("suggested reply must not be empty")
)
