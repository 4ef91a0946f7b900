package ledger

import (
	"context"
	"time"

	"github.com/quantract/certledger/internal/document"
	"github.com/quantract/certledger/internal/metrics"
	"github.com/quantract/certledger/pkg/certpdf"
	"github.com/quantract/certledger/pkg/digest"
)

// PDFRenderer adapts the certpdf generator to the Renderer port.
type PDFRenderer struct {
	gen     *certpdf.Generator
	metrics *metrics.Metrics
}

func NewPDFRenderer(gen *certpdf.Generator, m *metrics.Metrics) *PDFRenderer {
	return &PDFRenderer{gen: gen, metrics: m}
}

func (r *PDFRenderer) Render(ctx context.Context, snap *document.Snapshot, branding certpdf.Branding) ([]byte, error) {
	start := time.Now()
	defer func() { r.metrics.Render(time.Since(start)) }()

	return r.gen.Generate(ctx, SnapshotDocument(snap), branding)
}

// SnapshotDocument is the printable form of a snapshot. The signing hash on
// the page is recomputed from the snapshot itself.
func SnapshotDocument(snap *document.Snapshot) certpdf.Document {
	sections := snap.Sections()
	out := make([]certpdf.Section, len(sections))
	for i, s := range sections {
		rows := make([]certpdf.Row, len(s.Rows))
		for j, r := range s.Rows {
			rows[j] = certpdf.Row{Label: r.Label, Value: r.Value}
		}
		out[i] = certpdf.Section{Heading: s.Heading, Rows: rows}
	}

	return certpdf.Document{
		Title:       snap.Type.Title(),
		Number:      snap.CertificateNumber,
		Revision:    snap.Revision,
		IssuedAt:    snap.IssuedAt,
		SigningHash: digest.Sum(snap.Bytes()).Hex(),
		Sections:    out,
	}
}
