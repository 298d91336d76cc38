package extraction

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"docsign/internal/config"
	"docsign/internal/inference"
	"docsign/internal/model"
	"docsign/internal/ocr"
	"docsign/internal/redact"
)

// Engine runs the extraction cascade: native text, then rasterize + local
// OCR with a per-page vision fallback. It is pure with respect to storage;
// the caller decides whether and how to persist the extracted text.
type Engine struct {
	resolver   *PathResolver
	strategies []Strategy
	metrics    *Metrics
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithMetrics attaches outcome counters to the engine.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithStrategies replaces the default cascade; mainly for tests.
func WithStrategies(strategies ...Strategy) EngineOption {
	return func(e *Engine) { e.strategies = strategies }
}

// NewEngine builds the default two-stage cascade.
func NewEngine(resolver *PathResolver, rasterizer Rasterizer, ocrEngine ocr.Engine, vision VisionClient, cfg config.OCRConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		resolver: resolver,
		strategies: []Strategy{
			newNativeStrategy(cfg),
			newOCRStrategy(rasterizer, ocrEngine, vision, cfg),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractText resolves the document path and walks the strategy cascade,
// stopping at the first stage that produces a result. The returned
// ExtractionResult always carries a sanitized error message; the returned
// error keeps the full cause for logs and sentinel matching.
func (e *Engine) ExtractText(ctx context.Context, documentPath string, mc inference.ModelConfig) (model.ExtractionResult, error) {
	path, err := e.resolver.Resolve(documentPath)
	if err != nil {
		return e.failure(err), err
	}

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		err := ErrUnsupportedFormat
		return e.failure(err), err
	}

	in := Input{Path: path, Model: mc}
	var lastErr error
	for _, s := range e.strategies {
		res, err := s.TryExtract(ctx, in)
		if err != nil {
			lastErr = err
			continue
		}
		if res != nil {
			e.record(string(res.EngineUsed), "success")
			return *res, nil
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no extraction strategy produced a result")
	}
	if !errors.Is(lastErr, ErrExtractionFailed) {
		lastErr = errors.Join(ErrExtractionFailed, lastErr)
	}
	e.record("none", "failure")
	return e.failure(lastErr), lastErr
}

func (e *Engine) failure(err error) model.ExtractionResult {
	return model.ExtractionResult{
		Success: false,
		Error:   redact.Sanitize(err.Error()),
	}
}

func (e *Engine) record(engine, outcome string) {
	if e.metrics != nil {
		e.metrics.runs.WithLabelValues(engine, outcome).Inc()
	}
}
