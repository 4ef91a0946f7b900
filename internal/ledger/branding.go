package ledger

import (
	"context"
	"fmt"

	"github.com/quantract/certledger/internal/model"
	"github.com/quantract/certledger/pkg/certpdf"
)

// StaticBranding applies the same look to every certificate and links the
// QR code to the public PDF endpoint.
type StaticBranding struct {
	CompanyName   string
	AccentColor   string
	FooterText    string
	PublicBaseURL string
}

func (b StaticBranding) BrandingFor(_ context.Context, cert *model.Certificate) certpdf.Branding {
	out := certpdf.Branding{
		CompanyName: b.CompanyName,
		AccentColor: b.AccentColor,
		FooterText:  b.FooterText,
	}
	if cert != nil && cert.HasToken() && b.PublicBaseURL != "" {
		out.VerificationURL = VerificationURL(b.PublicBaseURL, *cert.VerificationToken)
	}
	return out
}

func VerificationURL(baseURL, token string) string {
	return fmt.Sprintf("%s/verify/%s/pdf", baseURL, token)
}
