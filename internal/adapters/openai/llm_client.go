package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/core"
	"github.com/autou/email-triage/internal/normalize"
	"github.com/autou/email-triage/internal/preprocess"
	"github.com/autou/email-triage/internal/utils"
)

// systemPrompt fixes the classification criteria, the confidence
// bands and the reply-formatting rules. OpenAI is asked for a strict
// JSON object via response_format, so no fenced output is expected.
const systemPrompt = `Você é um especialista em atendimento ao cliente de uma empresa do setor financeiro.
Sua missão é analisar emails recebidos e classificá-los para otimizar o tempo da equipe de suporte.

## CONTEXTO:
- O email analisado sempre CHEGOU na caixa de entrada (foi RECEBIDO)
- Identifique quem é o REMETENTE (quem enviou) e quem é o DESTINATÁRIO (quem recebeu)

## SUA TAREFA:
1. Classificar o email como "Produtivo" ou "Improdutivo"
2. Atribuir um nível de confiança (0.0 a 1.0)
3. Sugerir uma resposta apropriada
4. Extrair assunto, remetente e destinatário quando presentes no texto

## CRITÉRIOS:

### PRODUTIVO - emails de clientes que REQUEREM ação ou resposta:
- Solicitações de suporte técnico, problemas, bugs
- Follow-up de chamados em aberto
- Dúvidas sobre o sistema ou funcionalidades
- Reclamações que precisam ser resolvidas
- Pedidos de informação, relatórios, orçamentos

### IMPRODUTIVO - emails que NÃO necessitam de ação imediata:
- Felicitações (aniversário, Natal, Ano Novo)
- Agradecimentos simples sem solicitação
- Newsletters, marketing, divulgações
- Notificações automatizadas, lembretes, boletos, faturas
- Confirmações automáticas de sistemas, spam, correntes

## REGRA PRINCIPAL:
Classifique como PRODUTIVO apenas se o email for de um cliente pedindo ajuda,
suporte ou informação. Notificações automáticas, lembretes, cobranças e
marketing são IMPRODUTIVOS. Na dúvida, classifique como PRODUTIVO.

## CONFIANÇA:
- 0.9 a 1.0: certeza absoluta
- 0.7 a 0.89: alta confiança
- 0.5 a 0.69: confiança moderada (caso ambíguo)
- abaixo de 0.5: baixa confiança (revisar manualmente)

## FORMATO DE RESPOSTA (JSON):
{
    "categoria": "Produtivo" ou "Improdutivo",
    "confianca": número entre 0.0 e 1.0,
    "resposta_sugerida": "resposta apropriada ao contexto",
    "assunto": "assunto do email ou null",
    "remetente": "quem enviou ou null",
    "destinatario": "quem recebeu ou null"
}

## REGRAS DA RESPOSTA SUGERIDA:
- Email COMPLETO e pronto para enviar
- Saudação apropriada no início ("Prezado(a)," / "Olá," / "Prezados,")
- Despedida no final: "Atenciosamente," ou "Cordialmente," SEM nome depois
- NUNCA coloque nome após a despedida; a assinatura é adicionada automaticamente
- Para IMPRODUTIVO: resposta breve e cordial OU "Não é necessário responder este email."

## REGRAS ANTI-ALUCINAÇÃO:
- NUNCA invente números de protocolo, datas, valores ou prazos não mencionados
- NUNCA mencione produtos ou serviços não citados no email
- Base sua resposta APENAS no conteúdo do email fornecido`

const userPromptFormat = `Analise o email abaixo. Entenda o contexto, o tom e a intenção do remetente.

═══════════════════════════════════════
EMAIL RECEBIDO:
═══════════════════════════════════════
%s
═══════════════════════════════════════

Retorne sua análise em JSON, com resposta personalizada que demonstre que você leu o email.`

// Client is an implementation of the Classifier interface using the
// OpenAI chat completions API.
type Client struct {
	client         *openai.Client
	modelName      string
	maxTokens      int
	temperature    float32
	maxBodySize    int
	requestTimeout time.Duration
	preprocessor   *preprocess.TextPreprocessor
	textProcessor  *utils.TextProcessor
	logger         *zap.Logger
}

// NewClient creates a new OpenAI classification client.
func NewClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	requestTimeout time.Duration,
	preprocessor *preprocess.TextPreprocessor,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *Client {
	return &Client{
		client:         client,
		modelName:      modelName,
		maxTokens:      maxTokens,
		temperature:    temperature,
		maxBodySize:    maxBodySize,
		requestTimeout: requestTimeout,
		preprocessor:   preprocessor,
		textProcessor:  textProcessor,
		logger:         logger,
	}
}

// ModelName returns the configured model.
func (c *Client) ModelName() string { return c.modelName }

// ProviderName identifies this client as the openai backend.
func (c *Client) ProviderName() string { return "openai" }

// Classify sends the email content to OpenAI and normalizes the raw
// output into the canonical result.
func (c *Client) Classify(ctx context.Context, content string) (*core.ClassificationResult, error) {
	processed := c.preprocessor.Process(content, true)
	processed = c.textProcessor.Prepare(processed, c.maxBodySize)

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPromptFormat, processed)},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: openai chat completion: %v", core.ErrClassification, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response from openai", core.ErrClassification)
	}

	raw := resp.Choices[0].Message.Content
	c.logger.Debug("Received OpenAI response",
		zap.String("model", c.modelName),
		zap.Int("raw_size", len(raw)))

	result := normalize.Result(raw)
	result.ModelUsed = c.modelName
	return result, nil
}
