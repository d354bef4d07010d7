package reader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/core"
)

// PdfReader extracts text from PDF attachments. The underlying
// library panics on some malformed documents, so every call into it
// is recover-guarded.
type PdfReader struct {
	logger *zap.Logger
}

// NewPdfReader creates a new PDF reader.
func NewPdfReader(logger *zap.Logger) *PdfReader {
	return &PdfReader{logger: logger}
}

// Supports reports whether this reader handles the given extension.
func (r *PdfReader) Supports(ext string) bool {
	return ext == ".pdf"
}

// Read extracts the plain text of every page. A PDF that parses but
// yields no text at all (typically a scanned document) is rejected.
func (r *PdfReader) Read(data []byte) (string, error) {
	text, err := r.extract(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidFile, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no extractable text, the PDF may contain only scanned images", core.ErrInvalidFile)
	}
	return text, nil
}

func (r *PdfReader) extract(data []byte) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("PDF parser panicked", zap.Any("panic", rec))
			out = ""
			err = fmt.Errorf("malformed PDF document")
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %v", err)
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		func() {
			defer func() { _ = recover() }()
			page := reader.Page(i)
			if page.V.IsNull() {
				return
			}
			content := page.Content()
			for _, item := range content.Text {
				b.WriteString(item.S)
				b.WriteString(" ")
			}
			b.WriteString("\n")
		}()
	}

	return b.String(), nil
}

var _ core.FileReader = (*PdfReader)(nil)
