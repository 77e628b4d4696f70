// Package attach loads local files into transcript attachments: base64
// payload, MIME detection, and a short caption for PDF files.
package attach

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/csheth/nexus/internal/chat"
)

const captionSnippetLimit = 160

// Load reads the file at path and wraps it as an immutable attachment.
func Load(path string) (chat.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return chat.Attachment{}, fmt.Errorf("attach: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return chat.Attachment{}, fmt.Errorf("attach: %s is empty", path)
	}

	mimeType := detectMIME(path, data)
	attachment := chat.Attachment{
		ID:       uuid.NewString(),
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}
	if mimeType == "application/pdf" {
		// Best effort; an unreadable PDF still attaches, just without a caption.
		attachment.Caption = pdfCaption(path)
	}
	return attachment, nil
}

// detectMIME prefers the file extension and falls back to content sniffing.
func detectMIME(path string, data []byte) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		if base, _, err := mime.ParseMediaType(byExt); err == nil {
			return base
		}
	}
	return http.DetectContentType(data)
}

func pdfCaption(path string) string {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	pages := reader.NumPage()
	snippet := firstPageSnippet(reader)
	if snippet == "" {
		return fmt.Sprintf("PDF, %d pages", pages)
	}
	return fmt.Sprintf("PDF, %d pages: %s", pages, snippet)
}

func firstPageSnippet(reader *pdf.Reader) string {
	content, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	var builder strings.Builder
	if _, err := io.CopyN(&builder, content, captionSnippetLimit*4); err != nil && err != io.EOF {
		return ""
	}
	text := strings.Join(strings.Fields(builder.String()), " ")
	if len(text) > captionSnippetLimit {
		runes := []rune(text)
		if len(runes) > captionSnippetLimit {
			text = string(runes[:captionSnippetLimit]) + "…"
		}
	}
	return text
}
