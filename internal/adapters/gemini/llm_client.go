package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/core"
	"github.com/autou/email-triage/internal/normalize"
	"github.com/autou/email-triage/internal/preprocess"
	"github.com/autou/email-triage/internal/utils"
)

// promptFormat is the single combined prompt. Gemini has no strict
// JSON response mode here, so the model is told to answer with bare
// JSON and the normalizer tolerates fenced output anyway.
const promptFormat = `Você é um especialista em comunicação corporativa e atendimento ao cliente.
Sua missão é analisar emails recebidos, classificá-los e sugerir respostas personalizadas.

## SUA TAREFA:
1. Classificar o email como "Produtivo" ou "Improdutivo"
2. Atribuir um nível de confiança (0.0 a 1.0)
3. Sugerir uma resposta PERSONALIZADA baseada no conteúdo específico do email
4. Extrair assunto, remetente e destinatário quando presentes no texto

## CRITÉRIOS:

### PRODUTIVO - emails que AGREGAM VALOR à relação empresa/cliente:
- Solicitações de suporte, informação, orçamento ou ação
- Dúvidas legítimas sobre produtos, serviços, processos
- Feedback construtivo, elogios e reconhecimento
- Reclamações (sempre produtivas: exigem resolução)
- Oportunidades de negócio, propostas, parcerias

### IMPRODUTIVO - emails SEM VALOR para a relação comercial:
- Spam, propagandas não solicitadas, golpes, phishing
- Correntes e piadas, conteúdo viral
- Mensagens vazias ("Ok", "Obrigado" sem contexto)
- Newsletters genéricas, auto-respostas de sistemas

## REGRA DE OURO:
Na dúvida, classifique como PRODUTIVO. É melhor dar atenção a algo que não
precisa do que ignorar algo importante.

## DIRETRIZES PARA A RESPOSTA:
1. PERSONALIZE: mencione detalhes específicos do email
2. Demonstre empatia e ofereça próximos passos claros
3. Tom adequado ao contexto (formal/informal conforme o email)
4. Saudação no início e despedida "Atenciosamente," ou "Cordialmente," no final
5. NUNCA coloque nome após a despedida; a assinatura é adicionada automaticamente
6. NUNCA invente protocolos, datas, valores ou prazos não mencionados

═══════════════════════════════════════
EMAIL PARA CLASSIFICAR:
═══════════════════════════════════════
%s
═══════════════════════════════════════

RESPONDA APENAS com um objeto JSON válido (sem markdown, sem explicações):
{"categoria": "Produtivo ou Improdutivo", "confianca": número entre 0.0 e 1.0, "resposta_sugerida": "resposta personalizada", "assunto": "assunto ou null", "remetente": "remetente ou null", "destinatario": "destinatário ou null"}`

// Client is an implementation of the Classifier interface using
// Google Gemini.
type Client struct {
	client         *genai.Client
	model          *genai.GenerativeModel
	modelName      string
	maxBodySize    int
	requestTimeout time.Duration
	preprocessor   *preprocess.TextPreprocessor
	textProcessor  *utils.TextProcessor
	logger         *zap.Logger
}

// NewClient creates a new Gemini classification client from an
// already-constructed genai client.
func NewClient(
	client *genai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	requestTimeout time.Duration,
	preprocessor *preprocess.TextPreprocessor,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *Client {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Client{
		client:         client,
		model:          model,
		modelName:      modelName,
		maxBodySize:    maxBodySize,
		requestTimeout: requestTimeout,
		preprocessor:   preprocessor,
		textProcessor:  textProcessor,
		logger:         logger,
	}
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ModelName returns the configured model.
func (c *Client) ModelName() string { return c.modelName }

// ProviderName identifies this client as the gemini backend.
func (c *Client) ProviderName() string { return "gemini" }

// Classify sends the email content to Gemini and normalizes the raw
// output into the canonical result.
func (c *Client) Classify(ctx context.Context, content string) (*core.ClassificationResult, error) {
	processed := c.preprocessor.Process(content, true)
	processed = c.textProcessor.Prepare(processed, c.maxBodySize)

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	prompt := fmt.Sprintf(promptFormat, processed)
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini generate content: %v", core.ErrClassification, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response from gemini", core.ErrClassification)
	}

	raw := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	c.logger.Debug("Received Gemini response",
		zap.String("model", c.modelName),
		zap.Int("raw_size", len(raw)))

	result := normalize.Result(raw)
	result.ModelUsed = c.modelName
	return result, nil
}
