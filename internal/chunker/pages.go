package chunker

import (
	"fmt"
	"strings"
)

// PageBreak marks the character offset at which a source page begins within
// the full extracted text.
type PageBreak struct {
	Page   int `json:"page"`
	Offset int `json:"offset"`
}

// AttributePage resolves the source page a chunk most plausibly came from.
// It locates the chunk verbatim inside the full text and returns the page of
// the last break at or before that offset. When the chunk cannot be located
// (text cleanup may have altered whitespace) it falls back to a proportional
// estimate over the document — an approximation, not an authoritative answer.
func AttributePage(breaks []PageBreak, chunkText, fullText string, chunkIndex, totalChunks int) string {
	if len(breaks) == 0 {
		return ""
	}
	if offset := strings.Index(fullText, chunkText); offset >= 0 {
		page := breaks[0].Page
		for _, b := range breaks {
			if b.Offset > offset {
				break
			}
			page = b.Page
		}
		return fmt.Sprintf("Page %d", page)
	}

	totalPages := breaks[len(breaks)-1].Page
	if totalChunks <= 0 {
		return fmt.Sprintf("Page %d", totalPages)
	}
	page := chunkIndex*totalPages/totalChunks + 1
	if page > totalPages {
		page = totalPages
	}
	return fmt.Sprintf("Page %d", page)
}
