package constant

type CertificateStatus string

const (
	CertificateStatusDraft      CertificateStatus = "draft"
	CertificateStatusCompleted  CertificateStatus = "completed"
	CertificateStatusIssued     CertificateStatus = "issued"
	CertificateStatusVoid       CertificateStatus = "void"
	CertificateStatusSuperseded CertificateStatus = "superseded"
)

// Editable reports whether header and body may still change.
func (s CertificateStatus) Editable() bool {
	return s == CertificateStatusDraft || s == CertificateStatusCompleted
}

func (s CertificateStatus) Valid() bool {
	switch s {
	case CertificateStatusDraft, CertificateStatusCompleted, CertificateStatusIssued,
		CertificateStatusVoid, CertificateStatusSuperseded:
		return true
	}
	return false
}

const (
	// Length of the random part of a certificate number, e.g. EICR-3KQ9X2M7TA.
	CERTIFICATE_NUMBER_LENGTH = 10
	// Verification tokens are 64 hex characters (256 bits).
	VERIFICATION_TOKEN_LENGTH = 64
	// Tokens shorter than this are rejected before any lookup.
	VERIFICATION_TOKEN_MIN_LENGTH = 48
	DEFAULT_ISSUANCE_ATTEMPTS     = 3
)
