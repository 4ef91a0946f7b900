package certpdf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fontDirs are searched in order for the render tests.
var fontDirs = []string{"../../fonts", "/usr/share/fonts", "/Library/Fonts"}

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	for _, dir := range fontDirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		g, err := NewGenerator(&Config{FontDir: dir, TmpDir: t.TempDir()})
		if err == nil {
			return g
		}
	}
	t.Skip("No fonts available to test rendering")
	return nil
}

func testDocument(rows int) Document {
	s := Section{Heading: "Schedule of test results"}
	for i := 0; i < rows; i++ {
		s.Rows = append(s.Rows, Row{Label: "Circuit", Value: strings.Repeat("Ring final 32 A, Zs 0.82 Ω ", 3)})
	}
	return Document{
		Title:       "Electrical Installation Condition Report",
		Number:      "EICR-AB12CD34EF",
		Revision:    1,
		IssuedAt:    time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		SigningHash: strings.Repeat("ab", 32),
		Sections:    []Section{{Heading: "Particulars", Rows: []Row{{Label: "Client", Value: "Acme"}}}, s},
	}
}

func TestPaginate(t *testing.T) {
	l := &layout{cfg: NewDefaultConfig()}
	avail := l.cfg.PageHeightMM - headerBottomMM - footerTopMM

	tests := []struct {
		name   string
		blocks []block
		pages  int
	}{
		{"empty document still has a page", nil, 1},
		{"fits", []block{{kind: blockHeading, height: 10}, {kind: blockRow, height: 10}}, 1},
		{
			"overflows",
			[]block{{kind: blockRow, height: avail - 5}, {kind: blockRow, height: 10}},
			2,
		},
		{
			"heading moves with its first row",
			[]block{{kind: blockRow, height: avail - 15}, {kind: blockHeading, height: 10}, {kind: blockRow, height: 10}},
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := l.paginate(tt.blocks)
			if len(pages) != tt.pages {
				t.Fatalf("paginate() = %d pages, want %d", len(pages), tt.pages)
			}
		})
	}
}

func TestPaginateKeepsHeadingWithRow(t *testing.T) {
	l := &layout{cfg: NewDefaultConfig()}
	avail := l.cfg.PageHeightMM - headerBottomMM - footerTopMM
	pages := l.paginate([]block{
		{kind: blockRow, height: avail - 15},
		{kind: blockHeading, height: 10},
		{kind: blockRow, height: 10},
	})
	if got := pages[1][0].kind; got != blockHeading {
		t.Fatalf("second page starts with %v, want heading", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := (&Config{FontDir: "x"}).withDefaults()
	if cfg.PageWidthMM != DefaultPageWidthMM || cfg.PageHeightMM != DefaultPageHeightMM {
		t.Errorf("page size = %vx%v", cfg.PageWidthMM, cfg.PageHeightMM)
	}
	if cfg.QRCodeSize <= 0 || cfg.TmpDir == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.FontDir != "x" {
		t.Errorf("FontDir overwritten: %s", cfg.FontDir)
	}
}

func TestNewGeneratorWithoutFonts(t *testing.T) {
	_, err := NewGenerator(&Config{FontDir: t.TempDir(), TmpDir: t.TempDir()})
	if err == nil {
		t.Fatalf("expected error for empty font directory")
	}
}

func TestGenerate(t *testing.T) {
	g := testGenerator(t)

	pdf, err := g.Generate(context.Background(), testDocument(3), Branding{
		CompanyName:     "Quantract Electrical",
		VerificationURL: "https://example.test/verify/" + strings.Repeat("0f", 32) + "/pdf",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF-") {
		t.Fatalf("output is not a PDF")
	}

	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := os.WriteFile(path, pdf, 0o600); err != nil {
		t.Fatal(err)
	}
	n, err := PageCount(path)
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("PageCount = %d, want 1", n)
	}
}

func TestGenerateMultiPage(t *testing.T) {
	g := testGenerator(t)

	pdf, err := g.Generate(context.Background(), testDocument(200), Branding{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := os.WriteFile(path, pdf, 0o600); err != nil {
		t.Fatal(err)
	}
	n, err := PageCount(path)
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n < 2 {
		t.Fatalf("PageCount = %d, want several pages", n)
	}
}

func TestGenerateCancelled(t *testing.T) {
	g := testGenerator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, testDocument(1), Branding{}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
