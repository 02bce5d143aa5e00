package extract

import (
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls raw text out of CV PDFs.
type Extractor struct{}

// New creates a new Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the concatenated page text of a PDF file.
func (e *Extractor) Extract(pdfPath string) (string, error) {
	log.Printf("[extract] Extracting text from: %s", pdfPath)

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", pdfPath, err)
	}
	defer f.Close()

	var sb strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d of %s: %w", i, pdfPath, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text extracted from %s", pdfPath)
	}

	log.Printf("[extract] ✅ Extracted %d characters from %d pages", len(text), numPages)
	return text, nil
}
