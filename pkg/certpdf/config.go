package certpdf

import (
	"os"
	"path/filepath"
)

// A4 portrait, in millimetres.
const (
	DefaultPageWidthMM  = 210.0
	DefaultPageHeightMM = 297.0
)

type Config struct {
	// Directory scanned for .ttf and .otf files.
	FontDir string
	// Family to use; empty picks the first family found.
	FontFamily string
	// Working directory for intermediate files. Every render gets its own
	// subdirectory which is removed afterwards.
	TmpDir       string
	QRCodeSize   int
	PageWidthMM  float64
	PageHeightMM float64
}

func NewDefaultConfig() *Config {
	return &Config{
		FontDir:      "fonts",
		TmpDir:       filepath.Join(os.TempDir(), "certpdf"),
		QRCodeSize:   256,
		PageWidthMM:  DefaultPageWidthMM,
		PageHeightMM: DefaultPageHeightMM,
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	def := NewDefaultConfig()
	if out.TmpDir == "" {
		out.TmpDir = def.TmpDir
	}
	if out.QRCodeSize <= 0 {
		out.QRCodeSize = def.QRCodeSize
	}
	if out.PageWidthMM <= 0 {
		out.PageWidthMM = def.PageWidthMM
	}
	if out.PageHeightMM <= 0 {
		out.PageHeightMM = def.PageHeightMM
	}
	return &out
}
