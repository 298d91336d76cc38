package extraction

import (
	"context"
	"fmt"
	"os"
	"strings"

	"docsign/internal/config"
	"docsign/internal/inference"
	"docsign/internal/model"
	"docsign/internal/ocr"
)

// Input is one extraction attempt: a resolved document path plus the model
// credentials the caller resolved for this request.
type Input struct {
	Path  string
	Model inference.ModelConfig
}

// Strategy is one stage of the extraction cascade. TryExtract returns a nil
// result to decline the input, letting the engine move on to the next stage.
// A non-nil error is a document-level failure of this stage.
type Strategy interface {
	Name() string
	TryExtract(ctx context.Context, in Input) (*model.ExtractionResult, error)
}

// VisionClient is the last-resort page transcriber. Implemented by
// *inference.Client.
type VisionClient interface {
	Transcribe(ctx context.Context, image []byte, mc inference.ModelConfig) (string, error)
}

// pageMarker prefixes each accepted page block in the final document text.
func pageMarker(index int) string {
	return fmt.Sprintf("--- Page %d ---", index)
}

// nativeStrategy accepts a document when its embedded text layer carries
// enough characters to be trusted; below the threshold the document is
// treated as scanned and the strategy declines.
type nativeStrategy struct {
	minChars int
	read     func(path string) ([]nativePage, error)
}

func newNativeStrategy(cfg config.OCRConfig) *nativeStrategy {
	return &nativeStrategy{minChars: cfg.MinNativeChars, read: readNativeText}
}

func (s *nativeStrategy) Name() string { return "native" }

func (s *nativeStrategy) TryExtract(ctx context.Context, in Input) (*model.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := s.read(in.Path)
	if err != nil {
		// Unparsable text layer: decline, the document goes to OCR.
		return nil, nil
	}

	total := 0
	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		total += len(p.Text)
		blocks = append(blocks, pageMarker(p.Index)+"\n"+p.Text)
	}
	if total < s.minChars {
		return nil, nil
	}
	return &model.ExtractionResult{
		Success:    true,
		Text:       strings.Join(blocks, "\n\n"),
		EngineUsed: model.EngineNative,
	}, nil
}

// ocrStrategy rasterizes the document and runs local OCR per page, escalating
// individual low-yield pages to the vision fallback. Page text is assembled
// strictly in page order regardless of which engine resolved each page.
type ocrStrategy struct {
	rasterizer Rasterizer
	engine     ocr.Engine
	vision     VisionClient
	cfg        config.OCRConfig
}

func newOCRStrategy(r Rasterizer, e ocr.Engine, v VisionClient, cfg config.OCRConfig) *ocrStrategy {
	return &ocrStrategy{rasterizer: r, engine: e, vision: v, cfg: cfg}
}

func (s *ocrStrategy) Name() string { return "ocr" }

func (s *ocrStrategy) TryExtract(ctx context.Context, in Input) (*model.ExtractionResult, error) {
	pages, cleanup, err := s.rasterizer.Rasterize(ctx, in.Path, s.cfg.DPI)
	if err != nil {
		return nil, fmt.Errorf("%w: rasterize: %v", ErrExtractionFailed, err)
	}
	// Page images are removed on every exit path, success or failure.
	defer cleanup()

	sampled := samplePages(pages, s.cfg.SampleThreshold, s.cfg.SampleStep)
	if len(sampled) == 0 {
		return nil, fmt.Errorf("%w: no pages processed", ErrExtractionFailed)
	}

	blocks := make([]string, 0, len(sampled))
	localPages, visionPages := 0, 0
	for _, page := range sampled {
		if ctx.Err() != nil {
			// Caller aborted; keep whatever pages were already accepted.
			break
		}
		text, fromVision := s.extractPage(ctx, page, in.Model)
		if text == "" {
			continue
		}
		blocks = append(blocks, pageMarker(page.Index)+"\n"+text)
		if fromVision {
			visionPages++
		} else {
			localPages++
		}
	}

	if len(blocks) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		return nil, fmt.Errorf("%w: all extraction engines produced no text", ErrExtractionFailed)
	}

	engine := model.EngineTesseract
	switch {
	case visionPages > 0 && localPages > 0:
		engine = model.EngineMixed
	case visionPages > 0:
		engine = model.EngineVision
	}
	return &model.ExtractionResult{
		Success:    true,
		Text:       strings.Join(blocks, "\n\n"),
		EngineUsed: engine,
	}, nil
}

// extractPage tries local OCR first and escalates to the vision model when
// the output is missing or under the per-page threshold. Failures on either
// engine yield empty text; a single bad page never aborts the document.
func (s *ocrStrategy) extractPage(ctx context.Context, page model.PageImage, mc inference.ModelConfig) (text string, fromVision bool) {
	out, err := s.engine.RecognizeFile(ctx, page.Path, s.cfg.Language)
	out = strings.TrimSpace(out)
	if err == nil && len(out) >= s.cfg.MinPageChars {
		return out, false
	}

	img, rerr := os.ReadFile(page.Path)
	if rerr != nil {
		return "", false
	}
	vout, verr := s.vision.Transcribe(ctx, img, mc)
	if verr != nil {
		return "", false
	}
	vout = strings.TrimSpace(vout)
	if vout == "" {
		return "", false
	}
	return vout, true
}

// samplePages bounds OCR cost on large scans: documents over the threshold
// keep only the first page plus every step-th page (1, 1+step, 1+2*step, ...).
func samplePages(pages []model.PageImage, threshold, step int) []model.PageImage {
	if len(pages) <= threshold || step <= 1 {
		return pages
	}
	sampled := make([]model.PageImage, 0, 1+(len(pages)-1)/step)
	for _, p := range pages {
		if (p.Index-1)%step == 0 {
			sampled = append(sampled, p)
		}
	}
	return sampled
}
