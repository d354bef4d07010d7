package reader

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/autou/email-triage/internal/core"
)

// TxtReader reads plain text files, decoding legacy single-byte
// encodings when the content is not valid UTF-8.
type TxtReader struct {
	logger *zap.Logger
}

// NewTxtReader creates a new plain text reader.
func NewTxtReader(logger *zap.Logger) *TxtReader {
	return &TxtReader{logger: logger}
}

// Supports reports whether this reader handles the given extension.
func (r *TxtReader) Supports(ext string) bool {
	return ext == ".txt"
}

// fallbackEncodings is tried in order when the input is not UTF-8.
// Windows-1252 is a superset of ISO-8859-1 for printable bytes, so it
// goes first; the 8859 variants catch bytes 1252 leaves undefined.
var fallbackEncodings = []encoding.Encoding{
	charmap.Windows1252,
	charmap.ISO8859_1,
	charmap.ISO8859_15,
}

// Read decodes the file content into a UTF-8 string.
func (r *TxtReader) Read(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	for _, enc := range fallbackEncodings {
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if utf8.Valid(decoded) {
			r.logger.Debug("Decoded text file with legacy encoding")
			return string(decoded), nil
		}
	}

	// Last resort: replace invalid sequences so downstream code always
	// sees valid UTF-8.
	return strings.ToValidUTF8(string(data), "�"), nil
}

var _ core.FileReader = (*TxtReader)(nil)
