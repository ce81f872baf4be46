package report

import (
	"fmt"
	"strings"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

const (
	TextFilename  = "ai_vetting_report.txt"
	TextMediaType = "text/plain"
	PDFFilename   = "ai_vetting_report.pdf"
	PDFMediaType  = "application/pdf"
)

// Artifact is a fully rendered export ready to hand to the caller.
type Artifact struct {
	Filename  string
	MediaType string
	Data      []byte
}

// ParseFormat accepts "txt"/"text" and "pdf".
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "txt", "text":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
}

// Export renders the report in the requested format.
func Export(r Report, format Format, opts ...PDFOption) (Artifact, error) {
	switch format {
	case FormatText:
		return Artifact{Filename: TextFilename, MediaType: TextMediaType, Data: []byte(r.Text())}, nil
	case FormatPDF:
		data, err := r.PDF(opts...)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Filename: PDFFilename, MediaType: PDFMediaType, Data: data}, nil
	}
	return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
}
