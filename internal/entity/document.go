package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/budget-extractor/constants"
)

// Document is a loaded budget source. It is built once by the loader and not mutated afterwards.
type Document struct {
	ID          uuid.UUID            `json:"id"`
	Path        string               `json:"path"`
	Name        string               `json:"name"`
	Size        int64                `json:"size"`
	Kind        constants.SourceKind `json:"kind"`
	ContentHash []byte               `json:"content_hash"`
	Pages       []Page               `json:"pages"`
	Metadata    Metadata             `json:"metadata"`
	IsScanned   bool                 `json:"is_scanned"`
	HasImages   bool                 `json:"has_images"`
	LoadedAt    time.Time            `json:"loaded_at"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// Page holds the raw text of one page (1-based Number).
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Metadata is the document information dictionary, when the source carries one.
type Metadata struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
	ModDate      string `json:"mod_date,omitempty"`
	Encrypted    bool   `json:"encrypted,omitempty"`
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Text joins all page texts with newlines.
func (d *Document) Text() string {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Text) + 1
	}
	buf := make([]byte, 0, n)
	for i, p := range d.Pages {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, p.Text...)
	}
	return string(buf)
}

// MergePages returns a copy of d where each recognized page replaces the native page with the
// same number. Native pages OCR did not reach are kept, as is native text where recognition
// produced nothing.
func (d *Document) MergePages(recognized []Page) *Document {
	byNumber := make(map[int]Page, len(recognized))
	for _, r := range recognized {
		byNumber[r.Number] = r
	}
	merged := make([]Page, 0, len(d.Pages)+len(recognized))
	for _, p := range d.Pages {
		if r, ok := byNumber[p.Number]; ok {
			delete(byNumber, p.Number)
			if strings.TrimSpace(r.Text) != "" {
				p = r
			}
		}
		merged = append(merged, p)
	}
	for _, r := range recognized {
		if _, ok := byNumber[r.Number]; ok {
			delete(byNumber, r.Number)
			merged = append(merged, r)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Number < merged[j].Number })

	cp := *d
	cp.Pages = merged
	cp.Warnings = append([]string(nil), d.Warnings...)
	return &cp
}
