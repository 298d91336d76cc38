package extraction

import "errors"

var (
	// ErrFileNotFound means the document could not be located through any of
	// the historical path conventions.
	ErrFileNotFound = errors.New("document file not found")
	// ErrUnsupportedFormat means the file is not a format the pipeline can
	// process.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtractionFailed is the generic document-level failure; the
	// underlying cause is attached for logs but never surfaced raw to clients.
	ErrExtractionFailed = errors.New("text extraction failed")
)
