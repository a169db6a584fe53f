package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"strings"

	"github.com/stefjnl/localai-knowledge/internal/model"
)

type emailExtractor struct{}

// Extract renders an RFC 822 message as searchable text: the key headers
// first, then the body. text/plain parts are preferred over text/html.
func (emailExtractor) Extract(_ context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open email: %w", err)
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return nil, fmt.Errorf("parse email: %w", err)
	}

	var sb strings.Builder
	for _, header := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(header)); v != "" {
			sb.WriteString(header)
			sb.WriteString(": ")
			sb.WriteString(v)
			sb.WriteString("\n")
		}
	}

	body, err := extractBody(msg)
	if err != nil {
		return nil, err
	}
	sb.WriteString("\n")
	sb.WriteString(body)

	return &Result{Text: Normalize(sb.String())}, nil
}

func decodeHeader(value string) string {
	decoder := mime.WordDecoder{}
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

func extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		return readPart(msg.Body, msg.Header.Get("Content-Transfer-Encoding"), "")
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return readPart(msg.Body, msg.Header.Get("Content-Transfer-Encoding"), "")
	}
	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipart(msg.Body, params["boundary"])
	}
	return readPart(msg.Body, msg.Header.Get("Content-Transfer-Encoding"), mediaType)
}

func extractMultipart(body io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", fmt.Errorf("multipart email without boundary")
	}
	mr := multipart.NewReader(body, boundary)
	htmlFallback := ""
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read email part: %w", err)
		}
		mediaType, params, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		switch {
		case mediaType == "text/plain":
			return readPart(part, part.Header.Get("Content-Transfer-Encoding"), mediaType)
		case mediaType == "text/html":
			if htmlFallback == "" {
				htmlFallback, _ = readPart(part, part.Header.Get("Content-Transfer-Encoding"), mediaType)
			}
		case strings.HasPrefix(mediaType, "multipart/"):
			if nested, err := extractMultipart(part, params["boundary"]); err == nil && nested != "" {
				return nested, nil
			}
		}
	}
	if htmlFallback != "" {
		return htmlFallback, nil
	}
	return "", fmt.Errorf("email has no readable text part")
}

func readPart(r io.Reader, transferEncoding, mediaType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read email body: %w", err)
	}
	text := string(data)
	if mediaType == "text/html" {
		stripped, err := stripHTML(strings.NewReader(text))
		if err != nil {
			return "", err
		}
		text = stripped
	}
	return text, nil
}

func init() {
	register(model.DocTypeEmail, emailExtractor{})
}
