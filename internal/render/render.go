// Package render turns aggregated report data into byte artifacts. Rendering
// is pure: no network calls, no side effects, and deterministic output for a
// fixed clock.
package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/fitops/reportpipe/internal/aggregator"
	"github.com/fitops/reportpipe/internal/report"
)

// ErrUnsupportedFormat is returned for formats the renderer cannot produce.
// Unlike an unknown report type, this is a configuration error: there is no
// generic binary fallback.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Detail rows in paginated formats are capped to bound artifact size.
// Spreadsheet and delimited formats carry the full dataset.
const pdfRowCap = 50

// Options carries presentation inputs for one render.
type Options struct {
	Title   string
	Filters map[string]string
}

// Renderer produces report artifacts. Now is injectable so tests can pin
// the embedded generation timestamp.
type Renderer struct {
	Now func() time.Time
}

// New creates a renderer using the wall clock.
func New() *Renderer {
	return &Renderer{Now: time.Now}
}

// Render dispatches to the backend for the requested format.
func (r *Renderer) Render(typ report.Type, ds *aggregator.Dataset, opts Options, format report.Format) ([]byte, error) {
	doc := buildDocument(typ, ds, opts, r.now())

	switch format {
	case report.FormatPDF:
		return renderPDF(doc)
	case report.FormatExcel:
		return renderExcel(doc)
	case report.FormatCSV:
		return renderCSV(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ToPDF renders a tabular document artifact.
func (r *Renderer) ToPDF(typ report.Type, ds *aggregator.Dataset, opts Options) ([]byte, error) {
	return r.Render(typ, ds, opts, report.FormatPDF)
}

// ToExcel renders a spreadsheet artifact.
func (r *Renderer) ToExcel(typ report.Type, ds *aggregator.Dataset, opts Options) ([]byte, error) {
	return r.Render(typ, ds, opts, report.FormatExcel)
}

// ToCSV renders a delimited-text artifact.
func (r *Renderer) ToCSV(typ report.Type, ds *aggregator.Dataset, opts Options) ([]byte, error) {
	return r.Render(typ, ds, opts, report.FormatCSV)
}

func (r *Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
