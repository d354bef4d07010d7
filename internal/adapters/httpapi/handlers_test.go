package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/config"
	"github.com/autou/email-triage/internal/core"
)

type fakeClassifier struct {
	result *core.ClassificationResult
	err    error
}

func (f *fakeClassifier) Classify(ctx context.Context, content string) (*core.ClassificationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeClassifier) ModelName() string    { return "fake-model" }
func (f *fakeClassifier) ProviderName() string { return "openai" }

type fakeFactory struct {
	classifier core.Classifier
}

func (f *fakeFactory) Create(provider string) (core.Classifier, error) {
	switch strings.ToLower(provider) {
	case "", "openai", "gemini":
		return f.classifier, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownProvider, provider)
	}
}

type fakeTxtReader struct{}

func (fakeTxtReader) Supports(ext string) bool { return ext == ".txt" }
func (fakeTxtReader) Read(data []byte) (string, error) {
	return string(data), nil
}

func newTestHandlers(t *testing.T, classifier core.Classifier) *Handlers {
	t.Helper()
	logger := zap.NewNop()
	svc := core.NewTriageService(
		&fakeFactory{classifier: classifier},
		[]core.FileReader{fakeTxtReader{}},
		nil,
		logger,
		false,
		time.Hour,
	)
	cfg := config.NewFromViper(config.NewEmptyViper())
	return NewHandlers(svc, cfg, logger)
}

func productiveResult(t *testing.T) *core.ClassificationResult {
	t.Helper()
	result, err := core.NewClassificationResult(core.CategoryProdutivo, 0.92, "Prezado(a), recebemos sua solicitação.\n\nAtenciosamente,")
	if err != nil {
		t.Fatalf("failed to build result: %v", err)
	}
	result.ModelUsed = "fake-model"
	return result
}

func TestClassifyText(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{result: productiveResult(t)})

	body := `{"conteudo": "Preciso de ajuda com o sistema.", "provider": "openai"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/classificar", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ClassifyText(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp classifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Categoria != "Produtivo" {
		t.Errorf("expected categoria Produtivo, got %q", resp.Categoria)
	}
	if resp.Confianca != 0.92 {
		t.Errorf("expected confianca 0.92, got %v", resp.Confianca)
	}
	if resp.ModeloUsado != "fake-model" {
		t.Errorf("expected modelo_usado fake-model, got %q", resp.ModeloUsado)
	}
	if resp.NomeArquivo != "" {
		t.Errorf("expected empty nome_arquivo for text flow, got %q", resp.NomeArquivo)
	}
}

func TestClassifyTextEmptyContent(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{result: productiveResult(t)})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/classificar", strings.NewReader(`{"conteudo": "   "}`))
	rec := httptest.NewRecorder()

	h.ClassifyText(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank content, got %d", rec.Code)
	}
}

func TestClassifyTextInvalidJSON(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{result: productiveResult(t)})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/classificar", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.ClassifyText(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", rec.Code)
	}
}

func TestClassifyTextUnknownProvider(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{result: productiveResult(t)})

	body := `{"conteudo": "Olá", "provider": "claude"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/classificar", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ClassifyText(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown provider, got %d", rec.Code)
	}
}

func TestClassifyTextProviderDown(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{err: fmt.Errorf("%w: upstream timeout", core.ErrClassification)})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/classificar", strings.NewReader(`{"conteudo": "Olá, preciso de suporte."}`))
	rec := httptest.NewRecorder()

	h.ClassifyText(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when classification fails, got %d", rec.Code)
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestClassifyFile(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{result: productiveResult(t)})

	buf, contentType := multipartBody(t, "arquivo", "email_cliente.txt", []byte("Preciso do status do chamado 12345."))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/classificar/arquivo", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ClassifyFile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp classifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.NomeArquivo != "email_cliente.txt" {
		t.Errorf("expected nome_arquivo preserved, got %q", resp.NomeArquivo)
	}
}

func TestClassifyFileUnsupportedFormat(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{result: productiveResult(t)})

	buf, contentType := multipartBody(t, "arquivo", "planilha.xlsx", []byte("dados"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/classificar/arquivo", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ClassifyFile(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415 for unsupported format, got %d", rec.Code)
	}
}

func TestClassifyFileEmpty(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{result: productiveResult(t)})

	buf, contentType := multipartBody(t, "arquivo", "vazio.txt", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/classificar/arquivo", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ClassifyFile(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty file, got %d", rec.Code)
	}
}

func TestClassifyFileMissingField(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{result: productiveResult(t)})

	buf, contentType := multipartBody(t, "documento", "email.txt", []byte("conteudo"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/emails/classificar/arquivo", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ClassifyFile(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing field, got %d", rec.Code)
	}
}

func TestListProviders(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{result: productiveResult(t)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/emails/providers", nil)
	rec := httptest.NewRecorder()

	h.ListProviders(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp providersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Default != "openai" {
		t.Errorf("expected default openai, got %q", resp.Default)
	}
	for _, name := range []string{"openai", "gemini"} {
		if _, ok := resp.Providers[name]; !ok {
			t.Errorf("expected provider %q in listing", name)
		}
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandlers(t, &fakeClassifier{result: productiveResult(t)})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("expected healthy status, got %s", rec.Body.String())
	}
}
