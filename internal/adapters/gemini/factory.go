package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/autou/email-triage/internal/config"
	"github.com/autou/email-triage/internal/core"
	"github.com/autou/email-triage/internal/preprocess"
	"github.com/autou/email-triage/internal/utils"
)

// Factory creates new instances of the Gemini client
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	preprocessor  *preprocess.TextPreprocessor
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for Gemini client instances
func NewFactory(
	cfg *config.Config,
	logger *zap.Logger,
	preprocessor *preprocess.TextPreprocessor,
	textProcessor *utils.TextProcessor,
) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		preprocessor:  preprocessor,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new Gemini classifier
func (f *Factory) CreateClassifier() (core.Classifier, error) {
	geminiCfg := f.cfg.GetGemini()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(geminiCfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return NewClient(
		client,
		geminiCfg.Model,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.MaxBodySize,
		geminiCfg.RequestTimeout,
		f.preprocessor,
		f.textProcessor,
		f.logger,
	), nil
}
