package ollama

import (
	"strings"
	"unicode/utf8"
)

const maxPromptSnippet = 6000

var promptLabels = []string{"PERSON", "ORG", "MONEY", "DATE", "GPE", "LAW", "EVENT", "PRODUCT"}

var entitySystemPrompt = strings.Join([]string{
	"You are a named-entity recognizer for legal documents.",
	`Answer with one JSON object {"entities": [{"text": string, "label": string, "confidence": number}]}.`,
	"Allowed labels: " + strings.Join(promptLabels, ", ") + ".",
	"Copy entity text exactly as it appears in the document. No markdown, no extra keys.",
}, "\n")

// buildEntityPrompt returns the system and user prompts for text. Long
// documents are cut at a rune boundary.
func buildEntityPrompt(text string) (string, string) {
	return entitySystemPrompt, "Document:\n" + truncateRunes(text, maxPromptSnippet)
}

func truncateRunes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
