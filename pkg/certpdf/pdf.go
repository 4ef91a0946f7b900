package certpdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// qrWatermark anchors the QR image at the bottom right corner. Offsets are in
// points; scale is absolute relative to the image's pixel size.
const qrWatermark = "pos: br, off: -28 28, scale: 0.3 abs, rotation: 0"

// EmbedQRCodeToPdf stamps the QR image onto the selected pages, or every page
// when selectedPages is nil.
func EmbedQRCodeToPdf(inFile, outFile, qrCodePath string, selectedPages []string) error {
	if err := api.AddImageWatermarksFile(inFile, outFile, selectedPages, true, qrCodePath, qrWatermark, nil); err != nil {
		return fmt.Errorf("failed to embed QR code in PDF: %w", err)
	}
	return nil
}

// MergePages concatenates single-page PDFs in order.
func MergePages(pages []string, outFile string) error {
	if err := api.MergeCreateFile(pages, outFile, false, nil); err != nil {
		return fmt.Errorf("failed to merge pages: %w", err)
	}
	return nil
}

// PageCount validates inFile and returns its number of pages.
func PageCount(inFile string) (int, error) {
	if err := api.ValidateFile(inFile, nil); err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}
	return api.PageCountFile(inFile)
}
