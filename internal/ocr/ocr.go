package ocr

import "context"

// Engine is the local OCR provider contract: one page image in, plain text out.
// Implementations must be safe to call sequentially from a single goroutine;
// concurrent use is not required.
type Engine interface {
	Name() string
	// RecognizeFile runs OCR on the image at path using the given trained-data
	// language (e.g. "deu", "eng") and returns the linearized text.
	RecognizeFile(ctx context.Context, path, language string) (string, error)
}
