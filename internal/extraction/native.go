package extraction

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// nativePage is one page of embedded PDF text.
type nativePage struct {
	Index int
	Text  string
}

// readNativeText pulls the embedded text layer out of a PDF, page by page.
// A page whose text layer cannot be decoded yields an empty entry rather than
// failing the document; scanned PDFs typically produce no text at all.
func readNativeText(path string) ([]nativePage, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]nativePage, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, nativePage{Index: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			pages = append(pages, nativePage{Index: i})
			continue
		}
		pages = append(pages, nativePage{Index: i, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}
