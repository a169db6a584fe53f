package extract

import "strings"

var typographyReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	" ", " ",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	"…", "...",
	"ﬁ", "fi",
	"ﬂ", "fl",
)

// Normalize cleans up typography and whitespace from extracted text: smart
// quotes and dashes become ASCII, runs of blank lines collapse to one and runs
// of spaces/tabs to a single space.
func Normalize(text string) string {
	text = typographyReplacer.Replace(text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
