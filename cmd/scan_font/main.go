// Command scan_font lists the font families the renderer can use, so an
// operator can pick RENDERER_FONT_FAMILY.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/quantract/certledger/internal/config"
	"github.com/quantract/certledger/internal/env"
	"github.com/quantract/certledger/pkg/certpdf"
)

func init() {
	env.LoadEnv()
}

func main() {
	const outputFile = "font_metadata.json"

	fontDir := config.GetConfig().Renderer.FontDir
	if len(os.Args) > 1 {
		fontDir = os.Args[1]
	}

	fonts, err := certpdf.ScanFontDir(fontDir)
	if err != nil {
		log.Fatalf("Failed to scan font directory: %v", err)
	}

	families := map[string][]string{}
	for _, f := range fonts {
		families[f.Name] = append(families[f.Name], f.Subfamily)
	}

	data, err := json.MarshalIndent(fonts, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal JSON: %v", err)
	}

	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		log.Fatalf("Failed to write JSON file: %v", err)
	}

	for name, subfamilies := range families {
		fmt.Printf("%s: %v\n", name, subfamilies)
	}
	fmt.Printf("Saved metadata for %d fonts in %d families to %q\n", len(fonts), len(families), outputFile)
}
