package preprocess

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestProcessRemovesURLs(t *testing.T) {
	p := NewTextPreprocessor(false, zap.NewNop())

	got := p.Process("Acesse https://example.com/ajuda para detalhes ou www.example.com agora", true)
	if strings.Contains(got, "example.com") {
		t.Errorf("URLs not removed: %q", got)
	}
	if !strings.Contains(got, "Acesse") || !strings.Contains(got, "para detalhes") {
		t.Errorf("surrounding text lost: %q", got)
	}
}

func TestProcessNormalizesWhitespace(t *testing.T) {
	p := NewTextPreprocessor(false, zap.NewNop())

	got := p.Process("linha um\n\n\n\nlinha  \t dois", true)
	want := "linha um\nlinha dois"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProcessPreservesHeadersByDefault(t *testing.T) {
	p := NewTextPreprocessor(false, zap.NewNop())
	text := "De: cliente@empresa.com\nAssunto: Suporte\n\nPreciso de ajuda."

	got := p.Process(text, true)
	if !strings.Contains(got, "De: cliente@empresa.com") {
		t.Errorf("headers should be preserved: %q", got)
	}

	got = p.Process(text, false)
	if strings.Contains(got, "De:") || strings.Contains(got, "Assunto:") {
		t.Errorf("headers should be stripped: %q", got)
	}
	if !strings.Contains(got, "Preciso de ajuda.") {
		t.Errorf("body lost: %q", got)
	}
}

func TestProcessStripsSeparatorLines(t *testing.T) {
	p := NewTextPreprocessor(false, zap.NewNop())
	text := "cabeçalho\n--------\ncorpo\n====== fim"

	got := p.Process(text, false)
	if strings.Contains(got, "----") || strings.Contains(got, "====") {
		t.Errorf("separator lines kept: %q", got)
	}
}

func TestProcessStopwords(t *testing.T) {
	p := NewTextPreprocessor(true, zap.NewNop())

	got := p.Process("o cliente tem um problema no sistema", true)
	for _, stop := range []string{" o ", " um ", " no "} {
		if strings.Contains(" "+got+" ", stop) {
			t.Errorf("stopword %q kept: %q", stop, got)
		}
	}
	if !strings.Contains(got, "cliente") || !strings.Contains(got, "problema") {
		t.Errorf("content words lost: %q", got)
	}
}

func TestProcessDeterministic(t *testing.T) {
	p := NewTextPreprocessor(false, zap.NewNop())
	text := "De: a@b.c\n\nOlá,   tudo bem?\n\nhttps://x.y"

	first := p.Process(text, true)
	for i := 0; i < 3; i++ {
		if got := p.Process(text, true); got != first {
			t.Fatalf("not deterministic: %q vs %q", got, first)
		}
	}
}
