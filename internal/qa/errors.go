package qa

import "errors"

var (
	// ErrMissingInput is returned when neither a document id nor inline
	// content accompanies the question. Surfaced as a client error.
	ErrMissingInput = errors.New("a question and a document id or inline content are required")

	// ErrDocumentNotFound is returned when the document id resolves nowhere.
	ErrDocumentNotFound = errors.New("document not found")
)
