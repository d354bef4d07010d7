package reader

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/richardlehane/mscfb"
	"go.uber.org/zap"
	textunicode "golang.org/x/text/encoding/unicode"

	"github.com/autou/email-triage/internal/core"
)

// cfbMagic is the compound file binary signature every Outlook .msg
// file starts with.
var cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// MAPI property streams of interest inside a .msg compound file.
// Streams are named __substg1.0_PPPPTTTT where PPPP is the property id
// and TTTT the type (001F unicode, 001E ANSI).
const (
	propSubject    = "0037"
	propSenderName = "0C1A"
	propDisplayTo  = "0E04"
	propBody       = "1000"
)

// MsgReader extracts text from Outlook .msg files. The compound file
// stream walk is the primary path; when no body property is found it
// falls back to scanning the raw bytes for readable runs.
type MsgReader struct {
	logger *zap.Logger
}

// NewMsgReader creates a new Outlook message reader.
func NewMsgReader(logger *zap.Logger) *MsgReader {
	return &MsgReader{logger: logger}
}

// Supports reports whether this reader handles the given extension.
func (r *MsgReader) Supports(ext string) bool {
	return ext == ".msg"
}

// Read extracts subject, sender, recipient and body from the MAPI
// property streams.
func (r *MsgReader) Read(data []byte) (string, error) {
	if !bytes.HasPrefix(data, cfbMagic) {
		return "", fmt.Errorf("%w: not a compound file, expected an Outlook .msg", core.ErrInvalidFile)
	}

	props, err := r.readStreams(data)
	if err != nil {
		r.logger.Warn("Compound file walk failed, falling back to raw scan", zap.Error(err))
		props = map[string]string{}
	}

	var b strings.Builder
	writeHeader(&b, "De", props[propSenderName])
	writeHeader(&b, "Para", props[propDisplayTo])
	writeHeader(&b, "Assunto", props[propSubject])
	if b.Len() > 0 {
		b.WriteString("\n")
	}

	body := strings.TrimSpace(props[propBody])
	if body == "" {
		body = r.scanReadableRuns(data)
	}
	if body == "" {
		return "", fmt.Errorf("%w: no readable text in .msg file", core.ErrInvalidFile)
	}
	b.WriteString(body)

	return strings.TrimSpace(b.String()), nil
}

func (r *MsgReader) readStreams(data []byte) (map[string]string, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open compound file: %v", err)
	}

	utf16Dec := textunicode.UTF16(textunicode.LittleEndian, textunicode.IgnoreBOM).NewDecoder()
	props := make(map[string]string)

	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		name := entry.Name
		if !strings.HasPrefix(name, "__substg1.0_") || len(name) < len("__substg1.0_")+8 {
			continue
		}
		prop := name[len("__substg1.0_") : len("__substg1.0_")+4]
		typ := name[len("__substg1.0_")+4 : len("__substg1.0_")+8]
		switch prop {
		case propSubject, propSenderName, propDisplayTo, propBody:
		default:
			continue
		}
		if _, seen := props[prop]; seen {
			continue
		}

		raw, err := io.ReadAll(entry)
		if err != nil {
			continue
		}

		var text string
		switch typ {
		case "001F":
			decoded, err := utf16Dec.Bytes(raw)
			if err != nil {
				continue
			}
			text = string(decoded)
		case "001E":
			text = string(raw)
		default:
			continue
		}

		text = strings.TrimRight(text, "\x00")
		if strings.TrimSpace(text) != "" {
			props[prop] = strings.TrimSpace(text)
		}
	}

	return props, nil
}

// scanReadableRuns recovers printable text from a .msg whose property
// streams could not be decoded. It collects ASCII runs of at least 20
// characters, deduplicated in first-seen order.
func (r *MsgReader) scanReadableRuns(data []byte) string {
	const minRun = 20

	var runs []string
	seen := make(map[string]bool)
	var current []byte

	flush := func() {
		if len(current) >= minRun {
			run := strings.TrimSpace(string(current))
			if run != "" && !seen[run] {
				seen[run] = true
				runs = append(runs, run)
			}
		}
		current = current[:0]
	}

	for _, c := range data {
		if c >= 0x20 && c < 0x7F || c == '\n' || c == '\t' {
			current = append(current, c)
		} else {
			flush()
		}
	}
	flush()

	var kept []string
	for _, run := range runs {
		if isMostlyLetters(run) {
			kept = append(kept, run)
		}
	}
	return strings.Join(kept, "\n")
}

func isMostlyLetters(s string) bool {
	letters := 0
	for _, c := range s {
		if unicode.IsLetter(c) || unicode.IsSpace(c) {
			letters++
		}
	}
	return letters*2 >= len([]rune(s))
}

var _ core.FileReader = (*MsgReader)(nil)
