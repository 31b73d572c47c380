package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/runner"
)

// pdfPages returns one string per page. pdftotext keeps column layout, which the table
// strategy relies on; the pure-Go reader is the fallback when the binary is missing or fails.
func (l *Loader) pdfPages(ctx context.Context, path string, data []byte) ([]string, []string, error) {
	var warns []string
	if l.cfg.TextEngine == EnginePdftotext {
		pages, err := l.pdftotextPages(ctx, path, data)
		if err == nil {
			return pages, nil, nil
		}
		l.logger.Warn("document.pdftotext.failed", "path", path, "error", err)
		warns = append(warns, "pdftotext unavailable, used native text extraction: "+err.Error())
	}
	pages, err := nativePages(data)
	if err != nil {
		return nil, warns, err
	}
	return pages, warns, nil
}

func (l *Loader) pdftotextPages(ctx context.Context, path string, data []byte) ([]string, error) {
	if path == "" {
		f, err := os.CreateTemp("", "budget-*.pdf")
		if err != nil {
			return nil, err
		}
		defer os.Remove(f.Name())
		if _, err := f.Write(data); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		path = f.Name()
	}
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := l.runner.Run(ctx, l.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w: %s", err, runner.Truncate(string(errb), 512))
	}
	// A form-feed \f is used as page separator by default
	return splitPages(string(out)), nil
}

func nativePages(data []byte) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	n := r.NumPage()
	if n == 0 {
		return nil, errors.New("pdf has no pages")
	}
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, nativePageText(r, i))
	}
	return pages, nil
}

// nativePageText isolates per-page failures: a page that cannot be decoded is empty.
func nativePageText(r *pdf.Reader, i int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	p := r.Page(i)
	if p.V.IsNull() {
		return ""
	}
	t, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return t
}

type pdfInfo struct {
	Metadata  entity.Metadata
	HasImages bool
	Pages     int
}

func readPDFInfo(data []byte) (info pdfInfo, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdfcpu panic: %v", rec)
		}
	}()
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return info, fmt.Errorf("pdfcpu read: %w", err)
	}
	xref := ctx.XRefTable
	info.Pages = xref.PageCount
	info.Metadata = entity.Metadata{
		Title:        xref.Title,
		Author:       xref.Author,
		Subject:      xref.Subject,
		Creator:      xref.Creator,
		Producer:     xref.Producer,
		CreationDate: xref.CreationDate,
		ModDate:      xref.ModDate,
		Encrypted:    xref.Encrypt != nil,
	}
	info.HasImages = hasImageStreams(ctx)
	return info, nil
}

func hasImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
