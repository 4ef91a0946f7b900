package certpdf

import (
	"fmt"

	"github.com/tdewolff/canvas"
)

/*
 * tdewolff/canvas measures in millimetres; font sizes stay in points.
 */

const (
	marginMM       = 15.0
	headerBottomMM = 46.0
	footerTopMM    = 40.0
	labelWidthMM   = 55.0
	columnGapMM    = 3.0
	rowGapMM       = 1.6
	headingGapMM   = 4.0
	// qrReserveMM keeps footer text clear of the stamped QR code.
	qrReserveMM = 38.0

	textColor  = "#1a1a1a"
	mutedColor = "#555555"
)

type blockKind int

const (
	blockHeading blockKind = iota
	blockRow
)

type block struct {
	kind   blockKind
	text   string
	label  string
	height float64
}

type layout struct {
	cfg      *Config
	fonts    *Fonts
	doc      Document
	branding Branding
}

func (l *layout) face(size float64, bold bool, color string) *canvas.FontFace {
	return l.fonts.Family.Face(size, canvas.Hex(color), l.fonts.style(bold), canvas.FontNormal)
}

func (l *layout) textBox(face *canvas.FontFace, text string, widthMM float64) *canvas.Text {
	return canvas.NewTextBox(face, text, widthMM, 0.0, canvas.Left, canvas.Top, 0.0, 0.0)
}

func (l *layout) contentWidth() float64 {
	return l.cfg.PageWidthMM - 2*marginMM
}

func (l *layout) valueWidth() float64 {
	return l.contentWidth() - labelWidthMM - columnGapMM
}

func (l *layout) headingFace() *canvas.FontFace { return l.face(10.5, true, l.branding.accent()) }
func (l *layout) labelFace() *canvas.FontFace   { return l.face(8.5, false, mutedColor) }
func (l *layout) valueFace() *canvas.FontFace   { return l.face(8.5, false, textColor) }

// blocks flattens the document into measured blocks in print order.
func (l *layout) blocks() []block {
	var out []block
	for _, s := range l.doc.Sections {
		if len(s.Rows) == 0 {
			continue
		}
		h := l.textBox(l.headingFace(), s.Heading, l.contentWidth()).Bounds().H()
		out = append(out, block{kind: blockHeading, text: s.Heading, height: h + headingGapMM})

		for _, r := range s.Rows {
			if r.Value == "" {
				continue
			}
			lh := l.textBox(l.labelFace(), r.Label, labelWidthMM).Bounds().H()
			vh := l.textBox(l.valueFace(), r.Value, l.valueWidth()).Bounds().H()
			out = append(out, block{kind: blockRow, label: r.Label, text: r.Value, height: max(lh, vh) + rowGapMM})
		}
	}
	return out
}

// paginate splits blocks into pages. A heading is never left alone at the
// bottom of a page.
func (l *layout) paginate(blocks []block) [][]block {
	avail := l.cfg.PageHeightMM - headerBottomMM - footerTopMM

	var pages [][]block
	var cur []block
	used := 0.0
	for i, b := range blocks {
		need := b.height
		if b.kind == blockHeading && i+1 < len(blocks) {
			need += blocks[i+1].height
		}
		if len(cur) > 0 && used+need > avail {
			pages = append(pages, cur)
			cur, used = nil, 0
		}
		cur = append(cur, b)
		used += b.height
	}
	if len(cur) > 0 || len(pages) == 0 {
		pages = append(pages, cur)
	}
	return pages
}

func (l *layout) drawPage(blocks []block, pageNo, pageCount int) *canvas.Canvas {
	c := canvas.New(l.cfg.PageWidthMM, l.cfg.PageHeightMM)
	ctx := canvas.NewContext(c)
	// Change coordination from bottom-left to top-left
	ctx.SetCoordSystem(canvas.CartesianIV)

	l.drawHeader(ctx)

	y := headerBottomMM
	for _, b := range blocks {
		switch b.kind {
		case blockHeading:
			y += headingGapMM / 2
			ctx.DrawText(marginMM, y, l.textBox(l.headingFace(), b.text, l.contentWidth()))
			y += b.height - headingGapMM/2
		case blockRow:
			ctx.DrawText(marginMM, y, l.textBox(l.labelFace(), b.label, labelWidthMM))
			ctx.DrawText(marginMM+labelWidthMM+columnGapMM, y, l.textBox(l.valueFace(), b.text, l.valueWidth()))
			y += b.height
		}
	}

	l.drawFooter(ctx, pageNo, pageCount)
	return c
}

func (l *layout) drawHeader(ctx *canvas.Context) {
	y := marginMM
	if l.branding.CompanyName != "" {
		t := l.textBox(l.face(11, true, l.branding.accent()), l.branding.CompanyName, l.contentWidth())
		ctx.DrawText(marginMM, y, t)
		y += t.Bounds().H() + 2
	}

	title := l.textBox(l.face(15, true, textColor), l.doc.Title, l.contentWidth())
	ctx.DrawText(marginMM, y, title)
	y += title.Bounds().H() + 2

	sub := fmt.Sprintf("Certificate %s  |  Revision %d", l.doc.Number, l.doc.Revision)
	if !l.doc.IssuedAt.IsZero() {
		sub += "  |  Issued " + l.doc.IssuedAt.UTC().Format("2 January 2006 15:04 MST")
	}
	ctx.DrawText(marginMM, y, l.textBox(l.face(9, false, mutedColor), sub, l.contentWidth()))

	l.rule(ctx, headerBottomMM-3)
}

func (l *layout) drawFooter(ctx *canvas.Context, pageNo, pageCount int) {
	top := l.cfg.PageHeightMM - footerTopMM + 4
	l.rule(ctx, top-2)

	width := l.contentWidth() - qrReserveMM
	face := l.face(7, false, mutedColor)

	y := top
	lines := []string{}
	if l.doc.SigningHash != "" {
		lines = append(lines, "Signing hash (SHA-256): "+l.doc.SigningHash)
	}
	if l.branding.VerificationURL != "" {
		lines = append(lines, "Verify this certificate: "+l.branding.VerificationURL)
	}
	if l.branding.FooterText != "" {
		lines = append(lines, l.branding.FooterText)
	}
	lines = append(lines, fmt.Sprintf("Page %d of %d", pageNo, pageCount))

	for _, line := range lines {
		t := l.textBox(face, line, width)
		ctx.DrawText(marginMM, y, t)
		y += t.Bounds().H() + 1
	}
}

func (l *layout) rule(ctx *canvas.Context, y float64) {
	ctx.SetStrokeColor(canvas.Hex(l.branding.accent()))
	ctx.SetStrokeWidth(0.3)
	ctx.MoveTo(marginMM, y)
	ctx.LineTo(l.cfg.PageWidthMM-marginMM, y)
	ctx.Stroke()
}
