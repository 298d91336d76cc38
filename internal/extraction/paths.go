package extraction

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docsign/internal/config"
)

// Historical path conventions a document may be referenced by. Documents have
// been addressed over time as API view URLs, legacy static paths, and absolute
// container paths; the resolver tolerates all of them without ever escaping
// the upload directory.
var viewPrefixes = []string{
	"/api/contracts/view/",
	"/api/documents/view/",
}

const legacyUploadsPrefix = "/uploads/"

// PathResolver maps any historical document reference onto a real file inside
// the upload sandbox.
type PathResolver struct {
	uploadDir     string
	containerRoot string
}

// NewPathResolver creates a resolver for the configured upload sandbox.
func NewPathResolver(cfg config.UploadConfig) *PathResolver {
	return &PathResolver{
		uploadDir:     filepath.Clean(cfg.Dir),
		containerRoot: filepath.Clean(cfg.ContainerRoot),
	}
}

// Resolve turns a stored document reference into an absolute path inside the
// sandbox. The cascade is ordered and the first match wins:
//
//  1. internal view URL -> strip prefix, resolve in upload dir
//  2. legacy /uploads/ prefix -> strip, resolve in upload dir
//  3. relative path -> basename in upload dir
//  4. absolute path outside the container root -> basename in upload dir
//  5. resolved file missing -> one final basename fallback in upload dir
//  6. still missing -> ErrFileNotFound carrying both paths for diagnostics
//
// The returned path is always inside the upload directory, or an absolute
// path under the container root. Nothing outside is ever returned.
func (r *PathResolver) Resolve(original string) (string, error) {
	resolved := r.resolveCandidate(original)

	if !r.inSandbox(resolved) {
		resolved = r.inUploadDir(filepath.Base(original))
	}

	if !fileExists(resolved) {
		// Final fallback: the bare filename may still exist in the upload dir
		// even when the recorded path is stale.
		fallback := r.inUploadDir(filepath.Base(original))
		if fileExists(fallback) {
			return fallback, nil
		}
		return "", fmt.Errorf("%w: original %q, resolved %q", ErrFileNotFound, original, resolved)
	}
	return resolved, nil
}

func (r *PathResolver) resolveCandidate(original string) string {
	for _, prefix := range viewPrefixes {
		if strings.HasPrefix(original, prefix) {
			return r.inUploadDir(strings.TrimPrefix(original, prefix))
		}
	}
	if strings.HasPrefix(original, legacyUploadsPrefix) {
		return r.inUploadDir(strings.TrimPrefix(original, legacyUploadsPrefix))
	}
	if !filepath.IsAbs(original) {
		return r.inUploadDir(filepath.Base(original))
	}
	if !strings.HasPrefix(filepath.Clean(original), r.containerRoot+string(filepath.Separator)) {
		return r.inUploadDir(filepath.Base(original))
	}
	return filepath.Clean(original)
}

// inUploadDir joins a relative name into the upload dir, collapsing any
// traversal segments so the result cannot escape the sandbox.
func (r *PathResolver) inUploadDir(name string) string {
	joined := filepath.Clean(filepath.Join(r.uploadDir, filepath.Base(name)))
	return joined
}

func (r *PathResolver) inSandbox(path string) bool {
	clean := filepath.Clean(path)
	if clean == r.uploadDir || strings.HasPrefix(clean, r.uploadDir+string(filepath.Separator)) {
		return true
	}
	return strings.HasPrefix(clean, r.containerRoot+string(filepath.Separator))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
