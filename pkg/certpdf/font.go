package certpdf

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/sfnt"
)

type FontMetadata struct {
	Name      string `json:"name"`
	Subfamily string `json:"subfamily"`
	Path      string `json:"path"`
}

func (m FontMetadata) IsBold() bool {
	return strings.Contains(strings.ToLower(m.Subfamily), "bold")
}

func getFontMetadataByPath(fontPath string) (*FontMetadata, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	font, err := sfnt.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	name, err := font.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return nil, fmt.Errorf("retrieving font name: %w", err)
	}

	// Subfamily is optional in practice; treat a missing entry as regular.
	sub, err := font.Name(nil, sfnt.NameIDSubfamily)
	if err != nil {
		sub = "Regular"
	}

	return &FontMetadata{Name: name, Subfamily: sub, Path: fontPath}, nil
}

// ScanFontDir walks dir for .ttf and .otf files. Unparseable files are
// skipped. The result is sorted by path.
func ScanFontDir(dir string) ([]FontMetadata, error) {
	var fonts []FontMetadata

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".ttf" && ext != ".otf" {
			return nil
		}

		meta, err := getFontMetadataByPath(path)
		if err != nil {
			log.Printf("certpdf: skipping %q: %v", path, err)
			return nil
		}

		fonts = append(fonts, *meta)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(fonts, func(i, j int) bool { return fonts[i].Path < fonts[j].Path })
	return fonts, nil
}

type FontLoader struct {
	AvailableFonts []FontMetadata
}

func NewFontLoader(dir string) (*FontLoader, error) {
	fonts, err := ScanFontDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan font dir %s: %w", dir, err)
	}
	return &FontLoader{AvailableFonts: fonts}, nil
}

// Fonts is a loaded family. Bold is false when the family ships no bold face,
// in which case headings fall back to the regular style.
type Fonts struct {
	Family *canvas.FontFamily
	Bold   bool
}

func (f *Fonts) style(bold bool) canvas.FontStyle {
	if bold && f.Bold {
		return canvas.FontBold
	}
	return canvas.FontRegular
}

// LoadFamily loads the regular face of name, and the bold face when one is
// available. An empty name picks the first family found.
func (fl *FontLoader) LoadFamily(name string) (*Fonts, error) {
	var regular, bold *FontMetadata
	for i := range fl.AvailableFonts {
		meta := &fl.AvailableFonts[i]
		if name == "" {
			name = meta.Name
		}
		if meta.Name != name {
			continue
		}
		if meta.IsBold() {
			if bold == nil {
				bold = meta
			}
		} else if regular == nil {
			regular = meta
		}
	}

	if regular == nil {
		regular = bold
	}
	if regular == nil {
		return nil, fmt.Errorf("font %q not found", name)
	}

	family := canvas.NewFontFamily(regular.Name)
	if err := family.LoadFontFile(regular.Path, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("failed to load font file: %w", err)
	}
	fonts := &Fonts{Family: family}
	if bold != nil && bold != regular {
		if err := family.LoadFontFile(bold.Path, canvas.FontBold); err != nil {
			return nil, fmt.Errorf("failed to load bold font file: %w", err)
		}
		fonts.Bold = true
	}
	return fonts, nil
}
