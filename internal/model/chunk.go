package model

// DocumentType identifies the ingestion format of a source document.
type DocumentType string

const (
	DocTypeTranscript DocumentType = "transcript"
	DocTypePDF        DocumentType = "pdf"
	DocTypeMarkdown   DocumentType = "markdown"
	DocTypeImage      DocumentType = "image"
	DocTypeEmail      DocumentType = "email"
	DocTypeWebpage    DocumentType = "webpage"
	DocTypeEPUB       DocumentType = "epub"
)

// DocumentChunk is the atomic unit of embedding and retrieval. Chunks are
// produced during batch ingestion and handed to the vector store; they are
// immutable afterwards.
type DocumentChunk struct {
	Text      string       `json:"text"`
	Embedding []float32    `json:"embedding"`
	Source    string       `json:"source"`
	Type      DocumentType `json:"type"`
	PageInfo  string       `json:"page_info,omitempty"`
}

// SearchResult is a retrieved chunk plus query-time context. Constructed per
// query, never persisted.
type SearchResult struct {
	Content  string       `json:"content"`
	Source   string       `json:"source"`
	Score    float32      `json:"score"`
	Type     DocumentType `json:"type"`
	PageInfo string       `json:"page_info,omitempty"`
}
