package chunker

import "strings"

const (
	// DefaultMaxChunkChars is used for plain transcript sources.
	DefaultMaxChunkChars = 500
	// RichMaxChunkChars is used for richer formats (pdf, epub, webpage, ...).
	RichMaxChunkChars = 600

	continuationMarker = "..."
)

// Packer greedily packs sentences into bounded-length chunks. When
// overlapChars is positive, a word-boundary suffix of each flushed chunk seeds
// the next one so consecutive chunks share context. Oversized sentences are
// split on word boundaries with "..." continuation markers; a single word
// longer than the bound is passed through verbatim rather than truncated.
type Packer struct {
	maxChars     int
	overlapChars int
}

func NewPacker(maxChars, overlapChars int) *Packer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 4
	}
	return &Packer{maxChars: maxChars, overlapChars: overlapChars}
}

// Pack splits text into chunks of at most maxChars characters. Empty input
// yields no chunks; chunks are never empty or whitespace-only.
func (p *Packer) Pack(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	current := ""

	flush := func() {
		trimmed := strings.TrimSpace(current)
		if trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current = ""
	}

	for _, sentence := range sentences {
		if len(sentence) > p.maxChars {
			flush()
			pieces := p.splitLongSentence(sentence)
			if len(pieces) == 0 {
				continue
			}
			// All pieces but the last are complete chunks; the last one
			// seeds the next chunk so following sentences can join it.
			chunks = append(chunks, pieces[:len(pieces)-1]...)
			current = pieces[len(pieces)-1]
			continue
		}
		switch {
		case current == "":
			current = sentence
		case len(current)+1+len(sentence) <= p.maxChars:
			current += " " + sentence
		default:
			seed := p.overlapTail(current)
			flush()
			if seed != "" && len(seed)+1+len(sentence) <= p.maxChars {
				current = seed + " " + sentence
			} else {
				current = sentence
			}
		}
	}
	flush()
	return chunks
}

// splitLongSentence breaks an oversized sentence into word-bounded pieces.
// Every piece except the last carries a trailing "..." and every continuation
// piece a leading "..."; both markers count toward the length bound.
func (p *Packer) splitLongSentence(sentence string) []string {
	words := strings.Fields(sentence)
	if len(words) == 0 {
		return nil
	}
	// Reserve room for the trailing marker so finished pieces stay in bound.
	budget := p.maxChars - len(continuationMarker)
	if budget < 1 {
		budget = 1
	}

	var pieces []string
	current := ""
	for _, word := range words {
		start := current == "" || current == continuationMarker
		candidate := current + " " + word
		if start {
			candidate = current + word
		}
		if len(candidate) <= budget {
			current = candidate
			continue
		}
		if start {
			// A single word beyond the bound is emitted verbatim.
			pieces = append(pieces, word)
			current = continuationMarker
			continue
		}
		pieces = append(pieces, current+continuationMarker)
		if len(continuationMarker)+len(word) > budget {
			// The word alone overflows a marked piece; emit it verbatim so
			// the markers never push a chunk over the bound.
			pieces = append(pieces, word)
			current = continuationMarker
			continue
		}
		current = continuationMarker + word
	}
	if current != "" && current != continuationMarker {
		pieces = append(pieces, current)
	}
	return pieces
}

// overlapTail returns the last whole words of chunk totalling at most
// overlapChars characters. Empty when overlap is disabled or the final word
// alone exceeds the allowance.
func (p *Packer) overlapTail(chunk string) string {
	if p.overlapChars <= 0 {
		return ""
	}
	words := strings.Fields(chunk)
	total := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		add := len(words[i])
		if total > 0 {
			add++
		}
		if total+add > p.overlapChars {
			break
		}
		total += add
		start = i
	}
	if start == len(words) {
		return ""
	}
	return strings.Join(words[start:], " ")
}
