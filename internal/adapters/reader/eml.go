package reader

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/core"
)

// EmlReader extracts the headers and body of a single MIME message.
type EmlReader struct {
	logger *zap.Logger
}

// NewEmlReader creates a new EML reader.
func NewEmlReader(logger *zap.Logger) *EmlReader {
	return &EmlReader{logger: logger}
}

// Supports reports whether this reader handles the given extension.
func (r *EmlReader) Supports(ext string) bool {
	return ext == ".eml"
}

// Read parses the MIME envelope and renders a header block followed
// by the message body. The header labels stay in Portuguese because
// the classification prompt extracts metadata from them.
func (r *EmlReader) Read(data []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse EML: %v", core.ErrInvalidFile, err)
	}

	body := env.Text
	if strings.TrimSpace(body) == "" && env.HTML != "" {
		body = stripHTMLTags(env.HTML)
	}
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("%w: EML message has no readable body", core.ErrInvalidFile)
	}

	var b strings.Builder
	writeHeader(&b, "De", env.GetHeader("From"))
	writeHeader(&b, "Para", env.GetHeader("To"))
	writeHeader(&b, "Assunto", env.GetHeader("Subject"))
	writeHeader(&b, "Data", env.GetHeader("Date"))
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimSpace(body))

	return b.String(), nil
}

func writeHeader(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(strings.TrimSpace(value))
	b.WriteString("\n")
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	htmlEntityRe = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)
)

var htmlEntities = map[string]string{
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": "\"",
	"&apos;": "'",
	"&nbsp;": " ",
}

func stripHTMLTags(html string) string {
	text := htmlTagRe.ReplaceAllString(html, " ")
	text = htmlEntityRe.ReplaceAllStringFunc(text, func(entity string) string {
		if repl, ok := htmlEntities[entity]; ok {
			return repl
		}
		return " "
	})
	return strings.TrimSpace(text)
}

var _ core.FileReader = (*EmlReader)(nil)
