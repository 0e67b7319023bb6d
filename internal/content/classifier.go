package content

import "strings"

// Kind is the detected payload format of a document's raw content.
type Kind int

const (
	KindText Kind = iota
	KindPDF
	KindDOCX
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindDOCX:
		return "docx"
	default:
		return "text"
	}
}

type Classification struct {
	Binary bool
	Kind   Kind
}

// Detect sniffs content by signature. PDFs start with %PDF; DOCX files are
// zip containers (PK) or leak their package markers when stored as text.
// Malformed or empty input is classified as plain text, never an error.
func Detect(content string) Classification {
	if content == "" {
		return Classification{Binary: false, Kind: KindText}
	}
	if strings.HasPrefix(content, "%PDF") {
		return Classification{Binary: true, Kind: KindPDF}
	}
	if strings.HasPrefix(content, "PK") ||
		strings.Contains(content, "[Content_Types]") ||
		strings.Contains(content, "word/document.xml") {
		return Classification{Binary: true, Kind: KindDOCX}
	}
	return Classification{Binary: false, Kind: KindText}
}
