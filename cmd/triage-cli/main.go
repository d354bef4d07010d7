package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/config"
	"github.com/autou/email-triage/internal/core"
	"github.com/autou/email-triage/internal/factory"
	"github.com/autou/email-triage/internal/logging"
	"github.com/autou/email-triage/internal/preprocess"
	"github.com/autou/email-triage/internal/utils"
)

var (
	// Provider flags
	provider    = flag.String("provider", "", "AI provider (openai, gemini); empty uses the configured default")
	apiKey      = flag.String("api-key", "", "API key for the selected provider")
	modelName   = flag.String("model", "", "Model name override")
	maxTokens   = flag.Int("max-tokens", 0, "Maximum tokens for the model response")
	temperature = flag.Float64("temperature", 0.3, "Temperature for generation")
	maxBodySize = flag.Int("max-body-size", 8192, "Maximum email body size sent to the model")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (.txt, .pdf, .eml, .msg, .mbox); use stdin if not specified")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	preprocessor := preprocess.NewTextPreprocessor(cfg.GetBool("preprocess.remove_stopwords"), logger)
	textProcessor := utils.NewTextProcessor(logger)
	llmFactory := factory.NewLLMFactory(cfg, logger, preprocessor, textProcessor)
	defer llmFactory.Close()

	readers := factory.NewReaderFactory(logger).CreateReaders()
	svc := core.NewTriageService(llmFactory, readers, nil, logger, false, 0)

	ctx := context.Background()
	startTime := time.Now()

	var result *core.ClassificationResult
	if *inputFile != "" {
		data, err := os.ReadFile(*inputFile)
		if err != nil {
			logger.Fatal("Failed to read input file", zap.Error(err), zap.String("file", *inputFile))
		}
		logger.Info("Classifying file", zap.String("file", *inputFile))
		result, err = svc.ClassifyFile(ctx, filepath.Base(*inputFile), data, *provider)
		if err != nil {
			logger.Fatal("Failed to classify file", zap.Error(err))
		}
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read stdin", zap.Error(err))
		}
		logger.Info("Classifying text from stdin")
		result, err = svc.ClassifyText(ctx, string(data), *provider)
		if err != nil {
			logger.Fatal("Failed to classify text", zap.Error(err))
		}
	}
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Resultado ===\n")
	fmt.Printf("Categoria: %s\n", result.Category)
	fmt.Printf("Confiança: %.4f\n", result.Confidence)
	if result.Subject != nil {
		fmt.Printf("Assunto: %s\n", *result.Subject)
	}
	if result.Sender != nil {
		fmt.Printf("Remetente: %s\n", *result.Sender)
	}
	if result.Recipient != nil {
		fmt.Printf("Destinatário: %s\n", *result.Recipient)
	}
	fmt.Printf("Modelo: %s\n", result.ModelUsed)
	fmt.Printf("Tempo de processamento: %v\n", duration)
	fmt.Printf("\n=== Resposta sugerida ===\n%s\n", result.SuggestedReply)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	if *provider != "" {
		v.Set("ai.provider", *provider)
	}

	for _, section := range []string{"openai", "gemini"} {
		if *apiKey != "" {
			v.Set(section+".api_key", *apiKey)
		}
		if *modelName != "" {
			v.Set(section+".model", *modelName)
		}
		if *maxTokens > 0 {
			v.Set(section+".max_tokens", *maxTokens)
		}
		v.Set(section+".temperature", *temperature)
		v.Set(section+".max_body_size", *maxBodySize)
	}

	// Fall back to conventional environment variables for API keys so
	// the CLI works without flags.
	if *apiKey == "" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			v.Set("openai.api_key", key)
		}
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			v.Set("gemini.api_key", key)
		}
	}

	return config.NewFromViper(v)
}
