package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/adapters/httpapi"
	"github.com/autou/email-triage/internal/adapters/reader"
	"github.com/autou/email-triage/internal/adapters/smtpgw"
	"github.com/autou/email-triage/internal/config"
	"github.com/autou/email-triage/internal/core"
	"github.com/autou/email-triage/internal/factory"
	"github.com/autou/email-triage/internal/logging"
	"github.com/autou/email-triage/internal/preprocess"
	"github.com/autou/email-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processing helpers
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *preprocess.TextPreprocessor {
		return preprocess.NewTextPreprocessor(cfg.GetBool("preprocess.remove_stopwords"), logger)
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewReaderFactory); err != nil {
		return nil, err
	}

	// Register classifier factory port
	if err := container.Provide(func(f *factory.LLMFactory) core.ClassifierFactory {
		return f
	}); err != nil {
		return nil, err
	}

	// Register file readers
	if err := container.Provide(func(f *factory.ReaderFactory) []core.FileReader {
		return f.CreateReaders()
	}); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register cache TTL and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (time.Duration, error) {
		return f.GetCacheTTL()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(core.NewTriageService); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(httpapi.NewServer); err != nil {
		return nil, err
	}

	// Register SMTP gateway
	if err := container.Provide(func(svc *core.TriageService, cfg *config.Config, logger *zap.Logger) *smtpgw.Gateway {
		smtpCfg := cfg.GetSMTP()
		return smtpgw.NewGateway(
			svc,
			reader.NewEmlReader(logger),
			logger,
			smtpCfg.ListenAddress,
			smtpCfg.UpstreamAddr,
			smtpCfg.UpstreamPort,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
