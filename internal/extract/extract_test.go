package extract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefjnl/localai-knowledge/internal/extract"
	"github.com/stefjnl/localai-knowledge/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalize(t *testing.T) {
	in := "“Smart quotes” — and\r\nwindows   line endings…\n\n\n\nmany blanks"
	out := extract.Normalize(in)
	assert.Equal(t, "\"Smart quotes\" - and\nwindows line endings...\n\nmany blanks", out)
}

func TestExtensionsCoverAllTypes(t *testing.T) {
	for _, docType := range []model.DocumentType{
		model.DocTypeTranscript, model.DocTypePDF, model.DocTypeMarkdown,
		model.DocTypeImage, model.DocTypeEmail, model.DocTypeWebpage, model.DocTypeEPUB,
	} {
		assert.NotEmpty(t, extract.Extensions(docType), "type %s", docType)
		e, err := extract.ForType(docType)
		require.NoError(t, err)
		assert.NotNil(t, e)
	}
}

func TestForTypeUnknown(t *testing.T) {
	_, err := extract.ForType(model.DocumentType("bogus"))
	assert.Error(t, err)
}

func TestTextExtractor(t *testing.T) {
	path := writeFile(t, "talk.txt", "Hello   world.\r\nSecond line.")
	e, err := extract.ForType(model.DocTypeTranscript)
	require.NoError(t, err)

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hello world.\nSecond line.", res.Text)
	assert.Empty(t, res.PageBreaks)
}

func TestTextExtractorMissingFile(t *testing.T) {
	e, err := extract.ForType(model.DocTypeTranscript)
	require.NoError(t, err)
	_, err = e.Extract(context.Background(), "/does/not/exist.txt")
	assert.Error(t, err)
}

func TestMarkdownExtractor(t *testing.T) {
	md := "# Title\n\nSome *emphasised* paragraph text.\n\n```go\nfmt.Println(\"hi\")\n```\n\n- item one\n- item two\n"
	path := writeFile(t, "notes.md", md)
	e, err := extract.ForType(model.DocTypeMarkdown)
	require.NoError(t, err)

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Title")
	assert.Contains(t, res.Text, "Some emphasised paragraph text.")
	assert.Contains(t, res.Text, `fmt.Println("hi")`)
	assert.Contains(t, res.Text, "item one")
	assert.NotContains(t, res.Text, "*")
	assert.NotContains(t, res.Text, "#")
}

func TestWebpageExtractor(t *testing.T) {
	html := `<html><head><title>My Page</title><style>body{color:red}</style></head>` +
		`<body><script>alert(1)</script><h1>Heading</h1><p>Visible paragraph.</p></body></html>`
	path := writeFile(t, "page.html", html)
	e, err := extract.ForType(model.DocTypeWebpage)
	require.NoError(t, err)

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "My Page")
	assert.Contains(t, res.Text, "Heading")
	assert.Contains(t, res.Text, "Visible paragraph.")
	assert.NotContains(t, res.Text, "alert")
	assert.NotContains(t, res.Text, "color:red")
}

func TestEmailExtractorPlain(t *testing.T) {
	eml := "From: Alice <alice@example.com>\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Meeting notes\r\n" +
		"Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n" +
		"\r\n" +
		"The meeting covered roadmap planning.\r\n"
	path := writeFile(t, "mail.eml", eml)
	e, err := extract.ForType(model.DocTypeEmail)
	require.NoError(t, err)

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "From: Alice <alice@example.com>")
	assert.Contains(t, res.Text, "Subject: Meeting notes")
	assert.Contains(t, res.Text, "The meeting covered roadmap planning.")
}

func TestEmailExtractorMultipartPrefersPlain(t *testing.T) {
	eml := "From: a@example.com\r\n" +
		"Subject: Multi\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=BOUND\r\n" +
		"\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html version</p>\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain version\r\n" +
		"--BOUND--\r\n"
	path := writeFile(t, "multi.eml", eml)
	e, err := extract.ForType(model.DocTypeEmail)
	require.NoError(t, err)

	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "plain version")
	assert.NotContains(t, res.Text, "html version")
}

type stubRunner struct {
	output []byte
	err    error
}

func (s stubRunner) Run(context.Context, string, ...string) ([]byte, error) {
	return s.output, s.err
}

func TestImageExtractorUsesRunner(t *testing.T) {
	e := extract.NewImageExtractor(stubRunner{output: []byte("  scanned   text \n")})
	res, err := e.Extract(context.Background(), "scan.png")
	require.NoError(t, err)
	assert.Equal(t, "scanned text", res.Text)
}

func TestImageExtractorRunnerFailure(t *testing.T) {
	e := extract.NewImageExtractor(stubRunner{err: errors.New("binary not found")})
	_, err := e.Extract(context.Background(), "scan.png")
	assert.Error(t, err)
}

func TestImageExtractorEmptyOutput(t *testing.T) {
	e := extract.NewImageExtractor(stubRunner{output: []byte("   \n ")})
	_, err := e.Extract(context.Background(), "scan.png")
	assert.Error(t, err)
}
