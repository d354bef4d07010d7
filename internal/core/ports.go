package core

import (
	"context"
)

// Classifier defines the interface for classifying email content
// through an LLM provider.
type Classifier interface {
	// Classify analyzes the email content and returns the canonical result.
	Classify(ctx context.Context, content string) (*ClassificationResult, error)

	// ModelName returns the model the client is configured with.
	ModelName() string

	// ProviderName returns the provider identifier (e.g. "openai").
	ProviderName() string
}

// ClassifierFactory creates a Classifier for a provider identifier.
// The identifier set is closed; unknown identifiers are an error, not
// a silent default.
type ClassifierFactory interface {
	Create(provider string) (Classifier, error)
}

// FileReader extracts text from one family of file formats.
type FileReader interface {
	// Supports reports whether the reader handles the extension
	// (case-insensitive, dot-prefixed, e.g. ".pdf").
	Supports(ext string) bool

	// Read converts raw file bytes into extracted text.
	Read(data []byte) (string, error)
}

// CacheRepository stores classification results keyed by content hash.
type CacheRepository interface {
	// Get retrieves a cached entry for a content hash.
	Get(ctx context.Context, contentHash string) (*CacheEntry, error)

	// Set stores a cache entry.
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry.
	Delete(ctx context.Context, contentHash string) error

	// Cleanup removes expired entries.
	Cleanup(ctx context.Context) error
}
