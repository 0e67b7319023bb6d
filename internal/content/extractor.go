package content

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"docchat/internal/util"

	"github.com/ledongthuc/pdf"
)

const (
	pdfExtractionFailed  = "Error extracting text from PDF document."
	docxExtractionFailed = "Error extracting text from DOCX document."
	unsupportedFormat    = "Unsupported binary format"
)

// Extractor converts a classified binary payload into plain text.
type Extractor interface {
	Extract(data []byte, kind Kind) string
}

// StandardExtractor handles PDF and DOCX payloads. Extraction fails soft: a
// recognized kind that cannot be parsed yields a fixed placeholder string so
// downstream stages always have text to work with.
type StandardExtractor struct{}

func NewExtractor() *StandardExtractor {
	return &StandardExtractor{}
}

func (e *StandardExtractor) Extract(data []byte, kind Kind) string {
	switch kind {
	case KindText:
		return string(data)
	case KindPDF:
		text, err := extractPDF(data)
		if err != nil || text == "" {
			return pdfExtractionFailed
		}
		return text
	case KindDOCX:
		text, err := extractDOCX(data)
		if err != nil || text == "" {
			return docxExtractionFailed
		}
		return text
	default:
		return unsupportedFormat
	}
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", util.ErrNoExtractableText
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", err
	}
	return util.SanitizeText(buf.String()), nil
}

// extractDOCX reads word/document.xml out of the zip container and keeps the
// character data, inserting newlines at paragraph ends.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", util.ErrNoExtractableText
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteString("\n")
			}
		}
	}
	return util.SanitizeText(b.String()), nil
}
