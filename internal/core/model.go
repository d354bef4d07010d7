package core

import (
	"strings"
	"time"
)

// Category is the classification assigned to an email.
type Category string

const (
	// CategoryProdutivo marks emails that require an action or response.
	CategoryProdutivo Category = "Produtivo"
	// CategoryImprodutivo marks emails that require no action.
	CategoryImprodutivo Category = "Improdutivo"
)

// ParseCategory maps a raw category string onto the closed set.
// Anything outside the two known values maps to Produtivo: when in
// doubt the email is treated as productive so it gets attention.
func ParseCategory(raw string) Category {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "improdutivo":
		return CategoryImprodutivo
	default:
		return CategoryProdutivo
	}
}

// Email represents an email to be classified. It is immutable and is
// only constructed through NewEmail, which enforces the non-blank
// content invariant.
type Email struct {
	content string
}

// NewEmail creates an Email, failing when the content is empty or
// blank after trimming.
func NewEmail(content string) (Email, error) {
	if strings.TrimSpace(content) == "" {
		return Email{}, ErrInvalidContent
	}
	return Email{content: content}, nil
}

// Content returns the raw email content.
func (e Email) Content() string {
	return e.content
}

// ClassificationResult is the canonical, validated outcome of a
// classification, independent of which provider produced it.
type ClassificationResult struct {
	Category       Category
	Confidence     float64
	SuggestedReply string

	// Metadata the model extracted from header-like text in the body,
	// when it could identify any.
	Subject   *string
	Sender    *string
	Recipient *string

	ModelUsed string
}

// NewClassificationResult validates the invariants of the value
// object: confidence in [0,1] and a non-blank suggested reply.
func NewClassificationResult(category Category, confidence float64, suggestedReply string) (*ClassificationResult, error) {
	if confidence < 0 || confidence > 1 {
		return nil, ErrConfidenceRange
	}
	if strings.TrimSpace(suggestedReply) == "" {
		return nil, ErrEmptyReply
	}
	return &ClassificationResult{
		Category:       category,
		Confidence:     confidence,
		SuggestedReply: suggestedReply,
	}, nil
}

// HighConfidence reports whether the classification reached the 0.8
// confidence band.
func (r *ClassificationResult) HighConfidence() bool {
	return r.Confidence >= 0.8
}

// CacheEntry stores a previous classification keyed by content hash.
type CacheEntry struct {
	ContentHash    string
	Category       Category
	Confidence     float64
	SuggestedReply string
	ModelUsed      string
	LastSeen       time.Time
	ExpiresAt      time.Time
}
