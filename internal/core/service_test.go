package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubClassifier struct {
	result   *ClassificationResult
	err      error
	calls    int
	lastText string
}

func (s *stubClassifier) Classify(ctx context.Context, content string) (*ClassificationResult, error) {
	s.calls++
	s.lastText = content
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubClassifier) ModelName() string    { return "stub-model" }
func (s *stubClassifier) ProviderName() string { return "openai" }

type stubFactory struct {
	classifier Classifier
	err        error
}

func (s *stubFactory) Create(provider string) (Classifier, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.classifier, nil
}

type stubReader struct {
	ext  string
	text string
	err  error
}

func (s *stubReader) Supports(ext string) bool { return ext == s.ext }
func (s *stubReader) Read(data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.text != "" {
		return s.text, nil
	}
	return string(data), nil
}

type stubCache struct {
	entries map[string]*CacheEntry
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*CacheEntry)}
}

func (s *stubCache) Get(ctx context.Context, hash string) (*CacheEntry, error) {
	entry, ok := s.entries[hash]
	if !ok {
		return nil, errors.New("not found")
	}
	return entry, nil
}

func (s *stubCache) Set(ctx context.Context, entry *CacheEntry) error {
	s.sets++
	s.entries[entry.ContentHash] = entry
	return nil
}

func (s *stubCache) Delete(ctx context.Context, hash string) error {
	delete(s.entries, hash)
	return nil
}

func (s *stubCache) Cleanup(ctx context.Context) error { return nil }

func okResult(t *testing.T) *ClassificationResult {
	t.Helper()
	result, err := NewClassificationResult(CategoryProdutivo, 0.9, "Prezado(a), retornaremos em breve.\n\nAtenciosamente,")
	if err != nil {
		t.Fatalf("failed to build result: %v", err)
	}
	result.ModelUsed = "stub-model"
	return result
}

func newService(classifier Classifier, readers []FileReader, cache CacheRepository, cacheEnabled bool) *TriageService {
	return NewTriageService(&stubFactory{classifier: classifier}, readers, cache, zap.NewNop(), cacheEnabled, time.Hour)
}

func TestClassifyText(t *testing.T) {
	stub := &stubClassifier{result: okResult(t)}
	svc := newService(stub, nil, nil, false)

	result, err := svc.ClassifyText(context.Background(), "Preciso de suporte.", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Category != CategoryProdutivo {
		t.Errorf("expected Produtivo, got %s", result.Category)
	}
	if stub.calls != 1 {
		t.Errorf("expected 1 classifier call, got %d", stub.calls)
	}
}

func TestClassifyTextBlankContent(t *testing.T) {
	svc := newService(&stubClassifier{result: okResult(t)}, nil, nil, false)

	for _, content := range []string{"", "   ", "\n\t "} {
		_, err := svc.ClassifyText(context.Background(), content, "")
		if !errors.Is(err, ErrInvalidContent) {
			t.Errorf("content %q: expected ErrInvalidContent, got %v", content, err)
		}
	}
}

func TestClassifyTextUnknownProvider(t *testing.T) {
	factoryErr := fmt.Errorf("%w: %q", ErrUnknownProvider, "claude")
	svc := NewTriageService(&stubFactory{err: factoryErr}, nil, nil, zap.NewNop(), false, time.Hour)

	_, err := svc.ClassifyText(context.Background(), "Olá", "claude")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestClassifyTextWrapsUnexpectedErrors(t *testing.T) {
	stub := &stubClassifier{err: errors.New("connection reset")}
	svc := newService(stub, nil, nil, false)

	_, err := svc.ClassifyText(context.Background(), "Olá, tudo bem?", "")
	if !errors.Is(err, ErrClassification) {
		t.Errorf("expected ErrClassification, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected original message preserved, got %v", err)
	}
}

func TestClassifyTextCacheHitSkipsProvider(t *testing.T) {
	stub := &stubClassifier{result: okResult(t)}
	cache := newStubCache()
	svc := newService(stub, nil, cache, true)
	ctx := context.Background()

	if _, err := svc.ClassifyText(ctx, "Status do chamado 12345?", ""); err != nil {
		t.Fatalf("first classification failed: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected 1 cache store, got %d", cache.sets)
	}

	result, err := svc.ClassifyText(ctx, "Status do chamado 12345?", "")
	if err != nil {
		t.Fatalf("second classification failed: %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("expected cache hit to skip provider, classifier called %d times", stub.calls)
	}
	if result.ModelUsed != "stub-model" {
		t.Errorf("expected cached model name, got %q", result.ModelUsed)
	}
}

func TestClassifyTextCacheDisabled(t *testing.T) {
	stub := &stubClassifier{result: okResult(t)}
	cache := newStubCache()
	svc := newService(stub, nil, cache, false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.ClassifyText(ctx, "Mesma mensagem", ""); err != nil {
			t.Fatalf("classification failed: %v", err)
		}
	}
	if stub.calls != 2 {
		t.Errorf("expected provider called each time with cache off, got %d", stub.calls)
	}
	if cache.sets != 0 {
		t.Errorf("expected no cache writes with cache off, got %d", cache.sets)
	}
}

func TestClassifyFile(t *testing.T) {
	stub := &stubClassifier{result: okResult(t)}
	svc := newService(stub, []FileReader{&stubReader{ext: ".txt"}}, nil, false)

	result, err := svc.ClassifyFile(context.Background(), "email.txt", []byte("Preciso de um orçamento."), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Category != CategoryProdutivo {
		t.Errorf("expected Produtivo, got %s", result.Category)
	}
	if stub.lastText != "Preciso de um orçamento." {
		t.Errorf("expected extracted text forwarded, got %q", stub.lastText)
	}
}

func TestClassifyFileExtensionCaseInsensitive(t *testing.T) {
	stub := &stubClassifier{result: okResult(t)}
	svc := newService(stub, []FileReader{&stubReader{ext: ".txt"}}, nil, false)

	_, err := svc.ClassifyFile(context.Background(), "EMAIL.TXT", []byte("conteudo valido"), "")
	if err != nil {
		t.Errorf("expected uppercase extension accepted, got %v", err)
	}
}

func TestClassifyFileNoExtension(t *testing.T) {
	svc := newService(&stubClassifier{result: okResult(t)}, []FileReader{&stubReader{ext: ".txt"}}, nil, false)

	_, err := svc.ClassifyFile(context.Background(), "README", []byte("conteudo"), "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat for no extension, got %v", err)
	}
}

func TestClassifyFileUnsupportedExtension(t *testing.T) {
	svc := newService(&stubClassifier{result: okResult(t)}, []FileReader{&stubReader{ext: ".txt"}}, nil, false)

	_, err := svc.ClassifyFile(context.Background(), "planilha.xlsx", []byte("conteudo"), "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestClassifyFileReaderError(t *testing.T) {
	reader := &stubReader{ext: ".pdf", err: errors.New("malformed document")}
	svc := newService(&stubClassifier{result: okResult(t)}, []FileReader{reader}, nil, false)

	_, err := svc.ClassifyFile(context.Background(), "doc.pdf", []byte("data"), "")
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile, got %v", err)
	}
}

func TestClassifyFileBlankExtraction(t *testing.T) {
	reader := &stubReader{ext: ".pdf", text: "   \n  "}
	svc := newService(&stubClassifier{result: okResult(t)}, []FileReader{reader}, nil, false)

	_, err := svc.ClassifyFile(context.Background(), "scanned.pdf", []byte("data"), "")
	if !errors.Is(err, ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile for blank extraction, got %v", err)
	}
}

func TestClassifyFileFirstMatchingReaderWins(t *testing.T) {
	first := &stubReader{ext: ".txt", text: "do primeiro leitor"}
	second := &stubReader{ext: ".txt", text: "do segundo leitor"}
	stub := &stubClassifier{result: okResult(t)}
	svc := newService(stub, []FileReader{first, second}, nil, false)

	if _, err := svc.ClassifyFile(context.Background(), "a.txt", []byte("x"), ""); err != nil {
		t.Fatalf("classification failed: %v", err)
	}
	if stub.lastText != "do primeiro leitor" {
		t.Errorf("expected first reader selected, classifier saw %q", stub.lastText)
	}
}

func TestNewEmailInvariant(t *testing.T) {
	if _, err := NewEmail(" \t\n"); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("expected ErrInvalidContent, got %v", err)
	}
	email, err := NewEmail("conteudo")
	if err != nil {
		t.Fatalf("expected valid email, got %v", err)
	}
	if email.Content() != "conteudo" {
		t.Errorf("unexpected content %q", email.Content())
	}
}

func TestNewClassificationResultInvariants(t *testing.T) {
	if _, err := NewClassificationResult(CategoryProdutivo, 1.2, "resposta"); !errors.Is(err, ErrConfidenceRange) {
		t.Errorf("expected ErrConfidenceRange, got %v", err)
	}
	if _, err := NewClassificationResult(CategoryProdutivo, -0.1, "resposta"); !errors.Is(err, ErrConfidenceRange) {
		t.Errorf("expected ErrConfidenceRange, got %v", err)
	}
	if _, err := NewClassificationResult(CategoryProdutivo, 0.5, "  "); !errors.Is(err, ErrEmptyReply) {
		t.Errorf("expected ErrEmptyReply, got %v", err)
	}

	result, err := NewClassificationResult(CategoryImprodutivo, 0.85, "Obrigado pelo contato.")
	if err != nil {
		t.Fatalf("expected valid result, got %v", err)
	}
	if !result.HighConfidence() {
		t.Errorf("expected 0.85 to count as high confidence")
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
	}{
		{"Produtivo", CategoryProdutivo},
		{"improdutivo", CategoryImprodutivo},
		{"IMPRODUTIVO ", CategoryImprodutivo},
		{"spam", CategoryProdutivo},
		{"", CategoryProdutivo},
	}
	for _, tt := range tests {
		if got := ParseCategory(tt.raw); got != tt.want {
			t.Errorf("ParseCategory(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}
