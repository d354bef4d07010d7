// Package preprocess normalizes email text before it is handed to a
// provider client.
package preprocess

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	urlRe        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	headerLineRe = regexp.MustCompile(`(?im)^(De|From|Para|To|Cc|Bcc|Assunto|Subject|Data|Date):.*$`)
	separatorRe  = regexp.MustCompile(`(?m)^(-{3,}|={3,}).*$`)
	newlineRunRe = regexp.MustCompile(`\n+`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
)

// TextPreprocessor normalizes whitespace, strips URLs and optionally
// filters headers or stopwords. It is deterministic and side-effect
// free for a given input and flag set.
type TextPreprocessor struct {
	removeStopwords bool
	logger          *zap.Logger
}

// NewTextPreprocessor creates a preprocessor. Stopword removal is
// normally off; the prompts work better with the full text.
func NewTextPreprocessor(removeStopwords bool, logger *zap.Logger) *TextPreprocessor {
	return &TextPreprocessor{
		removeStopwords: removeStopwords,
		logger:          logger,
	}
}

// Process cleans the text for classification. Headers are preserved by
// default because the prompts rely on them to extract sender, recipient
// and subject metadata.
func (p *TextPreprocessor) Process(text string, preserveHeaders bool) string {
	if !preserveHeaders {
		text = stripHeaders(text)
	}

	text = urlRe.ReplaceAllString(text, "")
	text = normalizeWhitespace(text)

	if p.removeStopwords {
		text = filterStopwords(text)
	}

	return strings.TrimSpace(text)
}

// stripHeaders removes email-header-like lines and separator lines of
// repeated dashes or equals signs.
func stripHeaders(text string) string {
	text = headerLineRe.ReplaceAllString(text, "")
	text = separatorRe.ReplaceAllString(text, "")
	return text
}

// normalizeWhitespace collapses newline runs to single newlines and
// horizontal whitespace runs to single spaces.
func normalizeWhitespace(text string) string {
	text = newlineRunRe.ReplaceAllString(text, "\n")
	text = spaceRunRe.ReplaceAllString(text, " ")
	return text
}

func filterStopwords(text string) string {
	words := strings.Fields(strings.ToLower(text))
	kept := words[:0]
	for _, w := range words {
		if _, ok := stopwordsPT[w]; !ok {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// stopwordsPT is the fixed Portuguese stopword set.
var stopwordsPT = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "o", "e", "é", "de", "da", "do", "em", "um", "uma",
		"para", "com", "não", "os", "no", "se", "na", "por",
		"mais", "as", "dos", "como", "mas", "foi", "ao", "ele", "das",
		"tem", "à", "seu", "sua", "ou", "ser", "quando", "muito", "há",
		"nos", "já", "está", "eu", "também", "só", "pelo", "pela", "até",
		"isso", "ela", "entre", "era", "depois", "sem", "mesmo", "aos",
		"ter", "seus", "quem", "nas", "me", "esse", "eles", "estão",
		"você", "tinha", "foram", "essa", "num", "nem", "suas", "meu",
		"às", "minha", "têm", "numa", "pelos", "elas", "havia", "seja",
		"qual", "será", "nós", "tenho", "lhe", "deles", "essas", "esses",
		"pelas", "este", "fosse", "dele", "tu", "te", "vocês", "vos",
		"lhes", "meus", "minhas", "teu", "tua", "teus", "tuas", "nosso",
		"nossa", "nossos", "nossas", "dela", "delas", "esta", "estes",
		"estas", "aquele", "aquela", "aqueles", "aquelas", "isto",
		"aquilo", "estou", "estamos", "estive", "esteve", "estivemos",
		"estiveram", "estava", "estávamos", "estavam", "esteja",
		"estejamos", "estejam", "estivesse", "estivéssemos", "estivessem",
		"estiver", "estivermos", "estiverem", "hei", "havemos", "hão",
		"houve", "houvemos", "houveram", "houvera", "haja", "hajamos",
		"hajam", "houvesse", "houvéssemos", "houvessem", "houver",
		"houvermos", "houverem", "houverei", "houverá", "houveremos",
		"houverão", "houveria", "houveríamos", "houveriam", "sou",
		"somos", "são", "éramos", "eram", "fui", "fomos", "fora",
		"fôramos", "sejamos", "sejam", "fôssemos", "fossem", "for",
		"formos", "forem", "serei", "seremos", "serão", "seria",
		"seríamos", "seriam", "temos", "tinham", "tive", "teve",
		"tivemos", "tiveram", "tivera", "tivéramos", "tenha", "tenhamos",
		"tenham", "tivesse", "tivéssemos", "tivessem", "tiver",
		"tivermos", "tiverem", "terei", "terá", "teremos", "terão",
		"teria", "teríamos", "teriam",
	} {
		stopwordsPT[w] = struct{}{}
	}
}
