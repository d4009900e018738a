package attachments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
)

// MaxExtractedChars caps the text kept per attachment so one large document
// cannot dominate the analysis context.
const MaxExtractedChars = 20000

func extractContent(mimeType string, data []byte) (string, error) {
	var text string
	var err error

	switch mimeType {
	case "application/pdf":
		text, err = extractPdfText(data)
	case "application/json":
		text, err = extractJsonText(data)
	case "text/plain", "text/csv", "text/markdown":
		text = string(data)
	default:
		return "", fmt.Errorf("unsupported attachment type: %s", mimeType)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("attachment yielded no text content")
	}
	if len(text) > MaxExtractedChars {
		text = truncate(text, MaxExtractedChars)
	}
	return text, nil
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func extractPdfText(contents []byte) (string, error) {
	doc, err := fitz.NewFromMemory(contents)
	if err != nil {
		return "", fmt.Errorf("error opening pdf: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		page, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("error extracting text from pdf page %d: %w", i, err)
		}
		sb.WriteString(page)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// extractJsonText pretty prints json attachments so the model sees the
// structure instead of a single line blob.
func extractJsonText(data []byte) (string, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("error parsing json attachment: %w", err)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(parsed); err != nil {
		return "", err
	}
	return buf.String(), nil
}
