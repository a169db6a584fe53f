package chunker

import (
	"strings"
	"unicode"
)

// SplitSentences splits raw text into sentence-like units. A sentence closes
// when the buffer ends in '.', '!' or '?' and the following character is
// whitespace; whatever remains at end of input becomes the final sentence.
// No abbreviation or Unicode sentence-boundary handling is attempted.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	var buf strings.Builder
	for i, r := range runes {
		buf.WriteRune(r)
		if !isTerminal(r) {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(buf.String()); s != "" {
			sentences = append(sentences, s)
		}
		buf.Reset()
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
