package intake

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents removes combining marks, so "cotação" and "cotacao" compare equal.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeText lowercases, trims and strips diacritics.
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		return s
	}
	return out
}

var greetingTokens = []string{
	"oi", "ola", "hello", "hi", "opa", "eai",
	"bom dia", "boa tarde", "boa noite",
}

var calculateTokens = []string{
	"calcular", "calculo", "calcule", "cotacao", "cotar",
	"orcamento", "simular", "simulacao", "estimar", "estimativa", "preco",
}

var moveTokens = []string{
	"mudanca", "mudancas", "mudar", "mudei", "frete", "carreto",
}

var triggerPhrases = []string{
	"orcamento", "cotacao", "nova cotacao", "novo orcamento",
	"fazer mudanca", "quero mudar", "comecar", "start", "menu",
}

// IsActivation decides whether a message from an address with no session
// should start a new conversation. Everything else is silently dropped.
func IsActivation(text string) bool {
	normalized := normalizeText(text)
	if normalized == "" {
		return false
	}

	// Word-level matching keeps "coisa" from matching "oi"; splitting on
	// non-letter runes keeps "olá!" and "oi," matching it.
	words := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, token := range greetingTokens {
		if strings.Contains(token, " ") {
			if strings.Contains(normalized, token) {
				return true
			}
			continue
		}
		for _, w := range words {
			if w == token {
				return true
			}
		}
	}

	if containsAny(normalized, calculateTokens) && containsAny(normalized, moveTokens) {
		return true
	}

	return containsAny(normalized, triggerPhrases)
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
