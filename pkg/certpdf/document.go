package certpdf

import "time"

// Document is everything printed on a certificate. The renderer treats it as
// opaque text; it never interprets field meanings.
type Document struct {
	Title       string
	Number      string
	Revision    int
	IssuedAt    time.Time
	SigningHash string
	Sections    []Section
}

type Section struct {
	Heading string
	Rows    []Row
}

type Row struct {
	Label string
	Value string
}

// Branding is the per-company presentation of a certificate.
type Branding struct {
	CompanyName string
	// AccentColor is a hex colour such as "#1f4e79".
	AccentColor string
	FooterText  string
	// VerificationURL is encoded as a QR code on every page when set.
	VerificationURL string
}

const defaultAccent = "#1f4e79"

func (b Branding) accent() string {
	if b.AccentColor == "" {
		return defaultAccent
	}
	return b.AccentColor
}
