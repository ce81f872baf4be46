package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

const (
	lineHeight   = 10.0
	headerGap    = 10.0
	sectionGap   = 5.0
	pageMargin   = 10.0
	bottomMargin = 15.0
	fontFamily   = "Arial"
	fontSize     = 12.0
)

type pdfConfig struct {
	compress bool
	created  time.Time
}

// PDFOption tweaks the paginated encoding.
type PDFOption func(*pdfConfig)

// WithCompression toggles content stream compression.
func WithCompression(on bool) PDFOption {
	return func(c *pdfConfig) { c.compress = on }
}

// WithCreationDate pins the document creation date.
func WithCreationDate(ts time.Time) PDFOption {
	return func(c *pdfConfig) { c.created = ts }
}

// PDF renders the paginated encoding. The whole document is produced in
// memory; on error no bytes are returned.
func (r Report) PDF(opts ...PDFOption) ([]byte, error) {
	cfg := pdfConfig{compress: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	lines := r.Lines()
	encoded := make([]string, len(lines))
	for i, line := range lines {
		text, err := toWinAnsi(line.Text)
		if err != nil {
			return nil, err
		}
		encoded[i] = text
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(cfg.compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.SetTitle(encoded[0], false)
	pdf.SetCreator("ai-vetting", false)
	if !cfg.created.IsZero() {
		pdf.SetCreationDate(cfg.created)
	}
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", fontSize)

	var prev LineKind
	for i, line := range lines {
		text := encoded[i]
		switch line.Kind {
		case LineTitle:
			pdf.CellFormat(0, lineHeight, text, "", 1, "C", false, 0, "")
		case LineRisk:
			pdf.CellFormat(0, lineHeight, text, "", 1, "L", false, 0, "")
		case LineCategory:
			pdf.SetFont(fontFamily, "B", fontSize)
			pdf.MultiCell(0, lineHeight, text, "", "L", false)
			pdf.SetFont(fontFamily, "", fontSize)
		case LineQuestion, LineAnswer:
			pdf.MultiCell(0, lineHeight, text, "", "L", false)
		case LineBlank:
			if prev == LineRisk {
				pdf.Ln(headerGap)
			} else {
				pdf.Ln(sectionGap)
			}
		}
		prev = line.Kind
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// toWinAnsi converts UTF-8 text to the code page used by the core PDF fonts.
func toWinAnsi(value string) (string, error) {
	out, err := charmap.Windows1252.NewEncoder().String(value)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCharacter, value)
	}
	return out, nil
}
