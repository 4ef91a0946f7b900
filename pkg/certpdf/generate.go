// Package certpdf renders certificate documents to PDF: pages are laid out
// with tdewolff/canvas, concatenated and stamped with a verification QR code
// by pdfcpu.
package certpdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tdewolff/canvas/renderers"
)

var ErrNoFonts = errors.New("certpdf: no usable font found")

type Generator struct {
	cfg   *Config
	fonts *Fonts
	// mu serializes renders; the loaded font family is shared state.
	mu sync.Mutex
}

// NewGenerator scans and loads fonts once.
func NewGenerator(cfg *Config) (*Generator, error) {
	cfg = cfg.withDefaults()

	loader, err := NewFontLoader(cfg.FontDir)
	if err != nil {
		return nil, err
	}
	if len(loader.AvailableFonts) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFonts, cfg.FontDir)
	}

	fonts, err := loader.LoadFamily(cfg.FontFamily)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFonts, err)
	}

	if err := os.MkdirAll(cfg.TmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tmp directory: %w", err)
	}

	return &Generator{cfg: cfg, fonts: fonts}, nil
}

// Generate renders doc and returns the PDF bytes. Output is not byte-stable
// across calls: pdfcpu stamps creation metadata.
func (g *Generator) Generate(ctx context.Context, doc Document, branding Branding) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	workDir, err := os.MkdirTemp(g.cfg.TmpDir, "render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	l := &layout{cfg: g.cfg, fonts: g.fonts, doc: doc, branding: branding}
	pages := l.paginate(l.blocks())

	pageFiles := make([]string, len(pages))
	for i, blocks := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageFiles[i] = filepath.Join(workDir, fmt.Sprintf("page_%03d.pdf", i+1))
		c := l.drawPage(blocks, i+1, len(pages))
		if err := renderers.Write(pageFiles[i], c); err != nil {
			return nil, fmt.Errorf("failed to write PDF page %d: %w", i+1, err)
		}
	}

	out := pageFiles[0]
	if len(pageFiles) > 1 {
		out = filepath.Join(workDir, "merged.pdf")
		if err := MergePages(pageFiles, out); err != nil {
			return nil, err
		}
	}

	if branding.VerificationURL != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		qrPath := filepath.Join(workDir, "qr.png")
		if err := GenerateQRCode(branding.VerificationURL, qrPath, g.cfg.QRCodeSize); err != nil {
			return nil, err
		}
		stamped := filepath.Join(workDir, "certificate.pdf")
		if err := EmbedQRCodeToPdf(out, stamped, qrPath, nil); err != nil {
			return nil, err
		}
		out = stamped
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered PDF: %w", err)
	}
	return data, nil
}
