// Package normalize repairs raw LLM output into the canonical
// classification result. Model output is not guaranteed to be
// well-formed JSON, so parsing runs through a three-stage pipeline
// (direct parse, fenced-block extraction, fixed fallback) and field
// values are coerced and clamped before the result is constructed.
// Normalization never fails: malformed output ends in the default.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/autou/email-triage/internal/core"
)

// DefaultReply is the terminal safety net used when the model output
// carries no usable suggested reply.
const DefaultReply = "Obrigado pelo seu email. Retornaremos em breve."

// payload mirrors the JSON object the prompts ask the model to emit.
// Confianca is left untyped because models occasionally quote it.
type payload struct {
	Categoria        string `json:"categoria"`
	Confianca        any    `json:"confianca"`
	RespostaSugerida string `json:"resposta_sugerida"`
	Assunto          string `json:"assunto"`
	Remetente        string `json:"remetente"`
	Destinatario     string `json:"destinatario"`
}

// Result normalizes raw model output into a validated
// ClassificationResult. It never returns an error: output that cannot
// be salvaged produces the Produtivo/0.5/DefaultReply fallback.
func Result(raw string) *core.ClassificationResult {
	p := parsePayload(raw)

	category := core.ParseCategory(p.Categoria)
	confidence := clamp(coerceFloat(p.Confianca, 0.5), 0.0, 1.0)

	reply := CleanReply(p.RespostaSugerida)
	if strings.TrimSpace(reply) == "" {
		reply = DefaultReply
	}

	result, err := core.NewClassificationResult(category, confidence, reply)
	if err != nil {
		// Unreachable after clamping and defaulting, kept as the
		// last-line invariant check.
		result, _ = core.NewClassificationResult(core.CategoryProdutivo, 0.5, DefaultReply)
	}

	result.Subject = optionalField(p.Assunto)
	result.Sender = optionalField(p.Remetente)
	result.Recipient = optionalField(p.Destinatario)

	return result
}

// parsePayload applies the three parse stages in order; the first
// success stops the pipeline.
func parsePayload(raw string) payload {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err == nil {
		return p
	}

	if fenced, ok := extractFenced(raw); ok {
		if err := json.Unmarshal([]byte(fenced), &p); err == nil {
			return p
		}
	}

	return payload{
		Categoria:        string(core.CategoryProdutivo),
		Confianca:        0.5,
		RespostaSugerida: DefaultReply,
	}
}

// extractFenced returns the content between the first pair of
// triple-backtick fences, tolerating an optional "json" language tag.
func extractFenced(raw string) (string, bool) {
	const fence = "```"
	start := strings.Index(raw, fence)
	if start < 0 {
		return "", false
	}
	rest := raw[start+len(fence):]
	rest = strings.TrimPrefix(rest, "json")

	end := strings.Index(rest, fence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func coerceFloat(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return fallback
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// optionalField treats blank values and the literal string "null"
// (which models emit instead of JSON null) as absent.
func optionalField(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

var (
	valedictionRe = regexp.MustCompile(`(?i)\b(atenciosamente|cordialmente)\s*,`)

	// signatureTailRe matches what models append after the valediction
	// despite being told not to: a bracketed placeholder like
	// "[Seu Nome]" or a run of capitalized words posing as a name.
	signatureTailRe = regexp.MustCompile(`^\s*(\[[^\[\]]*\]|\p{Lu}[\p{L}.\-']*(\s+\p{Lu}[\p{L}.\-']*)*)\s*\.?\s*$`)
)

// CleanReply strips signature placeholders and invented names that
// appear after a closing valediction, so the reply ends exactly at
// "Atenciosamente," (or "Cordialmente,") and the real signature can be
// appended downstream.
func CleanReply(reply string) string {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return reply
	}

	locs := valedictionRe.FindAllStringIndex(reply, -1)
	if len(locs) == 0 {
		return reply
	}

	end := locs[len(locs)-1][1]
	tail := reply[end:]
	if strings.TrimSpace(tail) == "" {
		return reply
	}
	if signatureTailRe.MatchString(tail) {
		return strings.TrimSpace(reply[:end])
	}
	return reply
}
