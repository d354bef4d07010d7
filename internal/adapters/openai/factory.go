package openai

import (
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/config"
	"github.com/autou/email-triage/internal/core"
	"github.com/autou/email-triage/internal/preprocess"
	"github.com/autou/email-triage/internal/utils"
)

// Factory creates new instances of the OpenAI client
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	preprocessor  *preprocess.TextPreprocessor
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAI client instances
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

// CreateClassifier creates a new OpenAI classifier
func (f *Factory) CreateClassifier() (core.Classifier, error) {
	openaiCfg := f.cfg.GetOpenAI()

	client := openai.NewClient(openaiCfg.APIKey)

	return NewClient(
		client,
		openaiCfg.Model,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.MaxBodySize,
		openaiCfg.RequestTimeout,
		f.preprocessor,
		f.textProcessor,
		f.logger,
	), nil
}
