package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TriageService orchestrates the classification flows: text goes
// straight to a provider client, files are routed through the first
// reader that claims the extension.
type TriageService struct {
	classifiers  ClassifierFactory
	readers      []FileReader
	cache        CacheRepository
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewTriageService creates a new triage service.
func NewTriageService(
	classifiers ClassifierFactory,
	readers []FileReader,
	cache CacheRepository,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *TriageService {
	return &TriageService{
		classifiers:  classifiers,
		readers:      readers,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
	}
}

// ClassifyText validates the content and classifies it with the given
// provider. An empty provider selects the configured default.
func (s *TriageService) ClassifyText(ctx context.Context, content string, provider string) (*ClassificationResult, error) {
	email, err := NewEmail(content)
	if err != nil {
		return nil, err
	}

	classifier, err := s.classifiers.Create(provider)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled {
		if result, ok := s.cachedResult(ctx, email.Content()); ok {
			return result, nil
		}
	}

	result, err := classifier.Classify(ctx, email.Content())
	if err != nil {
		if errors.Is(err, ErrClassification) {
			return nil, err
		}
		// Unexpected failures never leak raw; they surface as the
		// classification kind carrying the original message.
		return nil, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	if s.cacheEnabled {
		s.storeResult(ctx, email.Content(), result)
	}

	return result, nil
}

// ClassifyFile extracts text from the uploaded file and then runs the
// text flow. The extension is matched against the reader list in
// registration order; the first reader that claims it wins.
func (s *TriageService) ClassifyFile(ctx context.Context, filename string, data []byte, provider string) (*ClassificationResult, error) {
	ext, ok := fileExtension(filename)
	if !ok {
		return nil, ErrUnsupportedFormat
	}

	reader := s.findReader(ext)
	if reader == nil {
		return nil, ErrUnsupportedFormat
	}

	text, err := reader.Read(data)
	if err != nil {
		if errors.Is(err, ErrInvalidFile) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: file contains no text", ErrInvalidFile)
	}

	s.logger.Debug("Extracted text from file",
		zap.String("filename", filename),
		zap.String("extension", ext),
		zap.Int("text_size", len(text)))

	result, err := s.ClassifyText(ctx, text, provider)
	if err != nil {
		// Extracted text that fails entity validation counts as an
		// invalid file, not invalid request content.
		if errors.Is(err, ErrInvalidContent) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		return nil, err
	}
	return result, nil
}

func (s *TriageService) findReader(ext string) FileReader {
	for _, r := range s.readers {
		if r.Supports(ext) {
			return r
		}
	}
	return nil
}

func (s *TriageService) cachedResult(ctx context.Context, content string) (*ClassificationResult, bool) {
	entry, err := s.cache.Get(ctx, contentHash(content))
	if err != nil || entry == nil {
		return nil, false
	}
	s.logger.Debug("Cache hit for content", zap.String("hash", entry.ContentHash))
	result, err := NewClassificationResult(entry.Category, entry.Confidence, entry.SuggestedReply)
	if err != nil {
		return nil, false
	}
	result.ModelUsed = entry.ModelUsed
	return result, true
}

func (s *TriageService) storeResult(ctx context.Context, content string, result *ClassificationResult) {
	entry := &CacheEntry{
		ContentHash:    contentHash(content),
		Category:       result.Category,
		Confidence:     result.Confidence,
		SuggestedReply: result.SuggestedReply,
		ModelUsed:      result.ModelUsed,
		LastSeen:       time.Now(),
		ExpiresAt:      time.Now().Add(s.cacheTTL),
	}
	if err := s.cache.Set(ctx, entry); err != nil {
		s.logger.Error("Failed to update cache", zap.Error(err))
	}
}

// fileExtension returns the lowercased, dot-prefixed extension of the
// filename. A name with no dot has no extension.
func fileExtension(filename string) (string, bool) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "", false
	}
	return strings.ToLower(filename[idx:]), true
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
