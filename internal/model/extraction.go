package model

// ExtractionEngine identifies which strategy produced the extracted text.
type ExtractionEngine string

const (
	// EngineNative means the embedded text layer of the document was usable.
	EngineNative ExtractionEngine = "native"
	// EngineTesseract means every accepted page came from local OCR.
	EngineTesseract ExtractionEngine = "tesseract"
	// EngineVision means every accepted page came from the remote vision model.
	EngineVision ExtractionEngine = "vision"
	// EngineMixed means pages were resolved by a mix of local OCR and vision.
	EngineMixed ExtractionEngine = "mixed"
)

// ExtractionResult is the outcome of one text-extraction call.
// It is constructed fresh per call and never persisted directly; the caller
// decides whether to store Text on the owning document.
type ExtractionResult struct {
	Success    bool             `json:"success"`
	Text       string           `json:"text,omitempty"`
	EngineUsed ExtractionEngine `json:"engine_used,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// PageImage is a rasterized page written to a temp file. The rasterizer owns
// the file for the duration of one extraction call; it is removed on every
// exit path before ExtractText returns.
type PageImage struct {
	// Index is 1-based; page order is preserved through the whole pipeline.
	Index int
	Path  string
}
