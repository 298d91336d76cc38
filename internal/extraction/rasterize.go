package extraction

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"docsign/internal/model"
)

// Rasterizer converts a PDF into per-page images. Implementations may shell
// out, bind a native library, or call a remote service; the engine never
// assumes a specific mechanism.
//
// The returned cleanup func removes every page image and must be safe to call
// exactly once on any exit path, including after a partial failure.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, dpi int) ([]model.PageImage, func(), error)
}

// PdftoppmRasterizer shells out to poppler's pdftoppm. Page images are JPEGs
// written into a per-call temp directory owned by this rasterizer.
type PdftoppmRasterizer struct {
	// Binary defaults to "pdftoppm".
	Binary string
}

var _ Rasterizer = (*PdftoppmRasterizer)(nil)

// Rasterize renders every page of the PDF at the given DPI.
func (r *PdftoppmRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]model.PageImage, func(), error) {
	bin := r.Binary
	if bin == "" {
		bin = "pdftoppm"
	}

	tmpDir, err := os.MkdirTemp("", "docsign-pages-")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, bin,
		"-jpeg",
		"-r", strconv.Itoa(dpi),
		pdfPath,
		prefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pages, err := collectPages(tmpDir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return pages, cleanup, nil
}

// collectPages lists the rendered images and orders them by the page number
// pdftoppm embeds in the filename (page-1.jpg, page-02.jpg, ...).
func collectPages(dir string) ([]model.PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read temp dir: %w", err)
	}

	pages := make([]model.PageImage, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jpg") {
			continue
		}
		idx, ok := pageIndexFromName(name)
		if !ok {
			continue
		}
		pages = append(pages, model.PageImage{Index: idx, Path: filepath.Join(dir, name)})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	return pages, nil
}

func pageIndexFromName(name string) (int, bool) {
	base := strings.TrimSuffix(name, ".jpg")
	dash := strings.LastIndexByte(base, '-')
	if dash < 0 {
		return 0, false
	}
	idx, err := strconv.Atoi(base[dash+1:])
	if err != nil || idx < 1 {
		return 0, false
	}
	return idx, true
}
