package content

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/dslipak/pdf"
)

// ExtractPDFText extracts the plain text of every page in a PDF. Pages
// that fail to parse are logged and skipped; the extraction only errors
// when no text at all could be recovered.
func ExtractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var buf strings.Builder
	numPages := r.NumPage()

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("content: PDF page %d failed to parse: %v", i, err)
			continue
		}

		buf.WriteString(text)
		buf.WriteString("\n")
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("PDF contains no extractable text")
	}
	return text, nil
}
