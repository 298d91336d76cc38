package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsign/internal/config"
	"docsign/internal/inference"
	"docsign/internal/model"
)

var testOCRConfig = config.OCRConfig{
	Language:        "deu",
	DPI:             150,
	MinNativeChars:  50,
	MinPageChars:    20,
	SampleThreshold: 10,
	SampleStep:      5,
}

var testModel = inference.ModelConfig{APIKey: "sk-test", ModelID: "gpt-4o"}

// fakeRasterizer writes real page image files into a temp dir so the vision
// fallback can read them, and records whether cleanup ran.
type fakeRasterizer struct {
	pageCount  int
	err        error
	cleanedUp  bool
	dir        string
	rasterized bool
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]model.PageImage, func(), error) {
	f.rasterized = true
	if f.err != nil {
		return nil, nil, f.err
	}
	f.dir, _ = os.MkdirTemp("", "fake-pages-")
	pages := make([]model.PageImage, 0, f.pageCount)
	for i := 1; i <= f.pageCount; i++ {
		p := filepath.Join(f.dir, fmt.Sprintf("page-%d.jpg", i))
		_ = os.WriteFile(p, []byte("jpeg-bytes"), 0o644)
		pages = append(pages, model.PageImage{Index: i, Path: p})
	}
	return pages, func() {
		f.cleanedUp = true
		_ = os.RemoveAll(f.dir)
	}, nil
}

// fakeOCREngine returns canned text per page index, keyed by filename.
type fakeOCREngine struct {
	byPage map[int]string
	err    error
	calls  []string
}

func (f *fakeOCREngine) Name() string { return "fake" }

func (f *fakeOCREngine) RecognizeFile(ctx context.Context, path, language string) (string, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return "", f.err
	}
	idx, _ := pageIndexFromName(filepath.Base(path))
	return f.byPage[idx], nil
}

type fakeVision struct {
	text  string
	err   error
	calls int
}

func (f *fakeVision) Transcribe(ctx context.Context, image []byte, mc inference.ModelConfig) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func nativeReader(pages ...nativePage) func(string) ([]nativePage, error) {
	return func(string) ([]nativePage, error) { return pages, nil }
}

func newTestEngine(t *testing.T, rast *fakeRasterizer, ocrEng *fakeOCREngine, vis *fakeVision, nativeRead func(string) ([]nativePage, error)) (*Engine, string) {
	t.Helper()
	resolver, uploadDir := newTestResolver(t)
	native := &nativeStrategy{minChars: testOCRConfig.MinNativeChars, read: nativeRead}
	e := NewEngine(resolver, rast, ocrEng, vis, testOCRConfig,
		WithStrategies(native, newOCRStrategy(rast, ocrEng, vis, testOCRConfig)))
	return e, uploadDir
}

func TestEngine_NativeTextSkipsRasterization(t *testing.T) {
	rast := &fakeRasterizer{pageCount: 3}
	longText := strings.Repeat("Vertragstext ", 20) // well over 50 chars per page
	e, uploadDir := newTestEngine(t, rast, &fakeOCREngine{}, &fakeVision{},
		nativeReader(
			nativePage{Index: 1, Text: longText},
			nativePage{Index: 2, Text: longText},
			nativePage{Index: 3, Text: longText},
		))
	touch(t, filepath.Join(uploadDir, "1700000000_contract.pdf"))

	res, err := e.ExtractText(context.Background(), "1700000000_contract.pdf", testModel)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, model.EngineNative, res.EngineUsed)
	assert.False(t, rast.rasterized, "native success must never invoke rasterization")
	assert.Contains(t, res.Text, "--- Page 1 ---")
	assert.Contains(t, res.Text, "--- Page 3 ---")
}

func TestEngine_ShortNativeTextFallsThroughToOCR(t *testing.T) {
	rast := &fakeRasterizer{pageCount: 2}
	ocrEng := &fakeOCREngine{byPage: map[int]string{
		1: "Erste Seite mit genug erkanntem Text darauf.",
		2: "Zweite Seite mit genug erkanntem Text darauf.",
	}}
	e, uploadDir := newTestEngine(t, rast, ocrEng, &fakeVision{},
		nativeReader(nativePage{Index: 1, Text: "kurz"}))
	touch(t, filepath.Join(uploadDir, "scan.pdf"))

	res, err := e.ExtractText(context.Background(), "scan.pdf", testModel)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, model.EngineTesseract, res.EngineUsed)
	assert.True(t, rast.rasterized)
	assert.True(t, rast.cleanedUp, "page images must be removed after extraction")
}

func TestEngine_MixedWhenSomePagesNeedVision(t *testing.T) {
	rast := &fakeRasterizer{pageCount: 3}
	ocrEng := &fakeOCREngine{byPage: map[int]string{
		1: "Genug Text auf der ersten Seite vorhanden.",
		2: "x", // under the per-page threshold, escalates to vision
		3: "Genug Text auf der dritten Seite vorhanden.",
	}}
	vis := &fakeVision{text: "Vision transcribed page two."}
	e, uploadDir := newTestEngine(t, rast, ocrEng, vis, nativeReader())
	touch(t, filepath.Join(uploadDir, "scan.pdf"))

	res, err := e.ExtractText(context.Background(), "scan.pdf", testModel)

	require.NoError(t, err)
	assert.Equal(t, model.EngineMixed, res.EngineUsed)
	assert.Equal(t, 1, vis.calls)

	// Page order is strict regardless of which engine resolved each page.
	p1 := strings.Index(res.Text, "--- Page 1 ---")
	p2 := strings.Index(res.Text, "--- Page 2 ---")
	p3 := strings.Index(res.Text, "--- Page 3 ---")
	assert.True(t, p1 >= 0 && p1 < p2 && p2 < p3)
	assert.Contains(t, res.Text, "Vision transcribed page two.")
}

func TestEngine_AllVisionPages(t *testing.T) {
	rast := &fakeRasterizer{pageCount: 2}
	ocrEng := &fakeOCREngine{err: errors.New("tesseract crashed")}
	vis := &fakeVision{text: "Transcribed entirely by the vision model."}
	e, uploadDir := newTestEngine(t, rast, ocrEng, vis, nativeReader())
	touch(t, filepath.Join(uploadDir, "scan.pdf"))

	res, err := e.ExtractText(context.Background(), "scan.pdf", testModel)

	require.NoError(t, err)
	assert.Equal(t, model.EngineVision, res.EngineUsed)
	assert.True(t, rast.cleanedUp)
}

func TestEngine_SamplingLargeDocument(t *testing.T) {
	rast := &fakeRasterizer{pageCount: 12}
	ocrEng := &fakeOCREngine{byPage: func() map[int]string {
		m := make(map[int]string)
		for i := 1; i <= 12; i++ {
			m[i] = fmt.Sprintf("Seite %d mit ausreichend langem Inhalt.", i)
		}
		return m
	}()}
	e, uploadDir := newTestEngine(t, rast, ocrEng, &fakeVision{}, nativeReader())
	touch(t, filepath.Join(uploadDir, "large-scan.pdf"))

	res, err := e.ExtractText(context.Background(), "large-scan.pdf", testModel)

	require.NoError(t, err)
	// First page plus every 5th: pages 1, 6 and 11.
	assert.Len(t, ocrEng.calls, 3)
	assert.Contains(t, res.Text, "--- Page 1 ---")
	assert.Contains(t, res.Text, "--- Page 6 ---")
	assert.Contains(t, res.Text, "--- Page 11 ---")
	assert.NotContains(t, res.Text, "--- Page 2 ---")
}

func TestEngine_AllEnginesFail(t *testing.T) {
	rast := &fakeRasterizer{pageCount: 2}
	ocrEng := &fakeOCREngine{err: errors.New("tesseract crashed")}
	vis := &fakeVision{err: errors.New("api down")}
	e, uploadDir := newTestEngine(t, rast, ocrEng, vis, nativeReader())
	touch(t, filepath.Join(uploadDir, "scan.pdf"))

	res, err := e.ExtractText(context.Background(), "scan.pdf", testModel)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no text")
	assert.True(t, rast.cleanedUp, "cleanup must run on the failure path too")
}

func TestEngine_NoPagesProcessed(t *testing.T) {
	rast := &fakeRasterizer{pageCount: 0}
	e, uploadDir := newTestEngine(t, rast, &fakeOCREngine{}, &fakeVision{}, nativeReader())
	touch(t, filepath.Join(uploadDir, "empty.pdf"))

	res, err := e.ExtractText(context.Background(), "empty.pdf", testModel)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Contains(t, res.Error, "no pages processed")
}

func TestEngine_FileNotFound(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRasterizer{}, &fakeOCREngine{}, &fakeVision{}, nativeReader())

	res, err := e.ExtractText(context.Background(), "/api/contracts/view/missing.pdf", testModel)

	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.False(t, res.Success)
}

func TestEngine_UnsupportedFormat(t *testing.T) {
	e, uploadDir := newTestEngine(t, &fakeRasterizer{}, &fakeOCREngine{}, &fakeVision{}, nativeReader())
	touch(t, filepath.Join(uploadDir, "notes.docx"))

	res, err := e.ExtractText(context.Background(), "notes.docx", testModel)

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, res.Success)
}

func TestEngine_CancelledContextStillCleansUp(t *testing.T) {
	rast := &fakeRasterizer{pageCount: 5}
	ocrEng := &fakeOCREngine{byPage: map[int]string{1: "Genug Text auf dieser einen Seite."}}
	e, uploadDir := newTestEngine(t, rast, ocrEng, &fakeVision{}, nativeReader())
	touch(t, filepath.Join(uploadDir, "scan.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ExtractText(ctx, "scan.pdf", testModel)

	require.Error(t, err)
	assert.True(t, rast.cleanedUp)
}

func TestEngine_SanitizedFailureMessage(t *testing.T) {
	rast := &fakeRasterizer{err: errors.New("rasterizer rejected key sk-verysecret123")}
	e, uploadDir := newTestEngine(t, rast, &fakeOCREngine{}, &fakeVision{}, nativeReader())
	touch(t, filepath.Join(uploadDir, "scan.pdf"))

	res, err := e.ExtractText(context.Background(), "scan.pdf", testModel)

	require.Error(t, err)
	assert.NotContains(t, res.Error, "sk-verysecret123")
}

func TestSamplePages(t *testing.T) {
	mk := func(n int) []model.PageImage {
		pages := make([]model.PageImage, n)
		for i := range pages {
			pages[i] = model.PageImage{Index: i + 1}
		}
		return pages
	}

	t.Run("under threshold keeps all pages", func(t *testing.T) {
		assert.Len(t, samplePages(mk(10), 10, 5), 10)
	})

	t.Run("over threshold samples first plus every 5th", func(t *testing.T) {
		sampled := samplePages(mk(12), 10, 5)
		require.Len(t, sampled, 3)
		assert.Equal(t, 1, sampled[0].Index)
		assert.Equal(t, 6, sampled[1].Index)
		assert.Equal(t, 11, sampled[2].Index)
	})

	t.Run("matches the sampling formula", func(t *testing.T) {
		for _, n := range []int{11, 20, 37, 100} {
			sampled := samplePages(mk(n), 10, 5)
			assert.Len(t, sampled, 1+(n-1)/5, "n=%d", n)
		}
	})
}
