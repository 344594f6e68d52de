package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsActivation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"plain greeting", "oi", true},
		{"greeting with punctuation and accent", "Olá!", true},
		{"greeting inside a sentence", "oi, tudo bem?", true},
		{"greeting with trailing punctuation", "oi!!!", true},
		{"greeting in parentheses", "(oi)", true},
		{"multi word greeting", "bom dia", true},
		{"english greeting", "Hello", true},
		{"calculate plus move intent", "quero calcular minha mudança", true},
		{"quote plus freight intent", "preciso de um orçamento de frete", true},
		{"trigger phrase", "cotação", true},
		{"trigger phrase start", "start", true},
		{"word containing greeting letters", "coisa", false},
		{"move intent without calculate", "minha mudança foi ótima", false},
		{"calculate intent without move", "calcular juros", false},
		{"unrelated text", "enviei o documento", false},
		{"bare yes", "sim", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActivation(tt.text))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "cotacao", normalizeText("  CotaÇÃO "))
	assert.Equal(t, "orcamento", normalizeText("Orçamento"))
	assert.Equal(t, "hello world", normalizeText("Hello World"))
}
