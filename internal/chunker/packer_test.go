package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefjnl/localai-knowledge/internal/chunker"
)

func TestPackSentencesTooBigToCombine(t *testing.T) {
	p := chunker.NewPacker(20, 0)
	chunks := p.Pack("Design is hard. Complexity grows. Manage it carefully.")
	require.Equal(t, []string{"Design is hard.", "Complexity grows.", "Manage it carefully."}, chunks)
}

func TestPackSentencesCombine(t *testing.T) {
	p := chunker.NewPacker(100, 0)
	chunks := p.Pack("Hello world. Goodbye world.")
	require.Equal(t, []string{"Hello world. Goodbye world."}, chunks)
}

func TestPackEmptyInput(t *testing.T) {
	p := chunker.NewPacker(100, 0)
	assert.Empty(t, p.Pack(""))
	assert.Empty(t, p.Pack("  \n  "))
}

func TestPackBound(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	for _, max := range []int{30, 80, 200, 500} {
		p := chunker.NewPacker(max, 0)
		for _, chunk := range p.Pack(text) {
			assert.LessOrEqual(t, len(chunk), max, "max=%d chunk=%q", max, chunk)
			assert.NotEmpty(t, strings.TrimSpace(chunk))
		}
	}
}

func TestPackLongSentenceSplit(t *testing.T) {
	// A single 26-word "sentence" with no terminal punctuation must be split
	// on word boundaries with continuation markers on both sides of a cut.
	words := make([]string, 26)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")
	p := chunker.NewPacker(40, 0)
	chunks := p.Pack(text)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 40)
		if i > 0 {
			assert.True(t, strings.HasPrefix(chunk, "..."), "chunk %d: %q", i, chunk)
		}
		if i < len(chunks)-1 {
			assert.True(t, strings.HasSuffix(chunk, "..."), "chunk %d: %q", i, chunk)
		}
	}
}

func TestPackUnsplittableWordPassedVerbatim(t *testing.T) {
	long := strings.Repeat("x", 50)
	p := chunker.NewPacker(20, 0)
	chunks := p.Pack("short intro. " + long)
	require.Contains(t, chunks, long)
	for _, chunk := range chunks {
		if chunk == long {
			continue
		}
		assert.LessOrEqual(t, len(chunk), 20)
	}
}

func TestPackNearLimitWordMidSentence(t *testing.T) {
	// A word close to the bound appearing mid-sentence must not be wrapped in
	// continuation markers that push the piece past the bound; it is emitted
	// verbatim instead.
	near := strings.Repeat("d", 36)
	p := chunker.NewPacker(40, 0)
	chunks := p.Pack("aaaaaaaaaa bbbbbbbbbb cccccccccc " + near + " e")
	require.Contains(t, chunks, near)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 40, "chunk %q", chunk)
	}
}

func TestPackOversizedWordMidSentence(t *testing.T) {
	long := strings.Repeat("y", 45)
	p := chunker.NewPacker(40, 0)
	chunks := p.Pack("aaaaaaaaaa bbbbbbbbbb cccccccccc " + long + " tail words here")
	require.Contains(t, chunks, long)
	for _, chunk := range chunks {
		if chunk == long {
			continue
		}
		assert.LessOrEqual(t, len(chunk), 40, "chunk %q", chunk)
	}
}

func TestPackOverlapSeedsNextChunk(t *testing.T) {
	p := chunker.NewPacker(60, 20)
	chunks := p.Pack("Alpha beta gamma delta epsilon zeta. Eta theta iota kappa lambda mu. Nu xi omicron pi rho sigma.")
	require.Equal(t, []string{
		"Alpha beta gamma delta epsilon zeta.",
		"delta epsilon zeta. Eta theta iota kappa lambda mu.",
		"kappa lambda mu. Nu xi omicron pi rho sigma.",
	}, chunks)
	for i := 1; i < len(chunks); i++ {
		seed := chunks[i][:strings.Index(chunks[i], ". ")+1]
		assert.True(t, strings.HasSuffix(chunks[i-1], seed),
			"chunk %d seed %q should be a suffix of chunk %d", i, seed, i-1)
		assert.LessOrEqual(t, len(chunks[i]), 60)
	}
}

func TestPackOverlapDisabled(t *testing.T) {
	text := "Alpha beta gamma delta. Epsilon zeta eta theta. Iota kappa lambda mu."
	with := chunker.NewPacker(30, 0).Pack(text)
	for i := 1; i < len(with); i++ {
		prev := strings.Fields(with[i-1])
		assert.False(t, strings.HasPrefix(with[i], prev[len(prev)-1]+" "),
			"no overlap expected between %q and %q", with[i-1], with[i])
	}
}

func TestPackNeverReturnsBlankChunks(t *testing.T) {
	p := chunker.NewPacker(25, 5)
	inputs := []string{
		"a. b. c. d. e.",
		"...   ... .",
		strings.Repeat("z ", 100),
	}
	for _, input := range inputs {
		for _, chunk := range p.Pack(input) {
			assert.NotEmpty(t, strings.TrimSpace(chunk), "input %q", input)
		}
	}
}
