package factory

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/adapters/gemini"
	"github.com/autou/email-triage/internal/adapters/openai"
	"github.com/autou/email-triage/internal/config"
	"github.com/autou/email-triage/internal/core"
	"github.com/autou/email-triage/internal/preprocess"
	"github.com/autou/email-triage/internal/utils"
)

// Providers is the closed set of supported provider identifiers.
var Providers = []string{"openai", "gemini"}

// LLMFactory creates classifier clients per provider. Clients are
// created once and reused; the Gemini client in particular holds a
// gRPC connection that should not be rebuilt per request.
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	preprocessor  *preprocess.TextPreprocessor
	textProcessor *utils.TextProcessor

	mu      sync.Mutex
	clients map[string]core.Classifier
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(
	cfg *config.Config,
	logger *zap.Logger,
	preprocessor *preprocess.TextPreprocessor,
	textProcessor *utils.TextProcessor,
) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		preprocessor:  preprocessor,
		textProcessor: textProcessor,
		clients:       make(map[string]core.Classifier),
	}
}

// Create returns the classifier for the given provider identifier.
// The match is case-insensitive and an empty identifier selects the
// configured default. Unknown identifiers are an error.
func (f *LLMFactory) Create(provider string) (core.Classifier, error) {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		name = strings.ToLower(f.cfg.GetDefaultProvider())
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[name]; ok {
		return client, nil
	}

	var client core.Classifier
	var err error
	switch name {
	case "openai":
		client, err = openai.NewFactory(f.cfg, f.logger, f.preprocessor, f.textProcessor).CreateClassifier()
	case "gemini":
		client, err = gemini.NewFactory(f.cfg, f.logger, f.preprocessor, f.textProcessor).CreateClassifier()
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownProvider, provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s classifier: %w", name, err)
	}

	f.logger.Info("Created classifier client",
		zap.String("provider", name),
		zap.String("model", client.ModelName()))
	f.clients[name] = client
	return client, nil
}

// Close releases any clients holding connections.
func (f *LLMFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, client := range f.clients {
		if closer, ok := client.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				f.logger.Warn("Failed to close classifier client",
					zap.String("provider", name), zap.Error(err))
			}
		}
	}
	f.clients = make(map[string]core.Classifier)
}

var _ core.ClassifierFactory = (*LLMFactory)(nil)
