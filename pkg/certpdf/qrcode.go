package certpdf

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// GenerateQRCode writes a PNG QR code for link. Medium recovery survives a
// printed and rescanned certificate.
func GenerateQRCode(link, outputPath string, size int) error {
	if err := qrcode.WriteFile(link, qrcode.Medium, size, outputPath); err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}
	return nil
}
