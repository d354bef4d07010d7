package reader

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-mbox"
	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/core"
)

// maxMboxMessages caps how many messages of a mailbox are rendered.
// A mailbox can hold thousands of messages; only the first few are
// useful for classification.
const maxMboxMessages = 10

// MboxReader extracts text from mbox mailboxes by delegating each
// contained message to the EML reader.
type MboxReader struct {
	eml    *EmlReader
	logger *zap.Logger
}

// NewMboxReader creates a new mbox reader.
func NewMboxReader(eml *EmlReader, logger *zap.Logger) *MboxReader {
	return &MboxReader{eml: eml, logger: logger}
}

// Supports reports whether this reader handles the given extension.
func (r *MboxReader) Supports(ext string) bool {
	return ext == ".mbox"
}

// Read renders up to maxMboxMessages messages separated by numbered
// markers. Messages beyond the cap are counted and summarized.
func (r *MboxReader) Read(data []byte) (string, error) {
	mr := mbox.NewReader(bytes.NewReader(data))

	var b strings.Builder
	rendered := 0
	skipped := 0

	for {
		msg, err := mr.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		raw, err := io.ReadAll(msg)
		if err != nil {
			continue
		}

		if rendered >= maxMboxMessages {
			skipped++
			continue
		}

		text, err := r.eml.Read(raw)
		if err != nil {
			r.logger.Debug("Skipping unreadable mbox message", zap.Error(err))
			continue
		}

		rendered++
		fmt.Fprintf(&b, "=== Email %d ===\n%s\n\n", rendered, text)
	}

	if rendered == 0 {
		return "", fmt.Errorf("%w: mbox contains no readable messages", core.ErrInvalidFile)
	}
	if skipped > 0 {
		fmt.Fprintf(&b, "[... Mais %d emails não exibidos ...]\n", skipped)
	}

	return strings.TrimSpace(b.String()), nil
}

var _ core.FileReader = (*MboxReader)(nil)
