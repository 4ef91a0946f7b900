package ledger

import (
	"context"
	"time"

	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/document"
	"github.com/quantract/certledger/internal/model"
	"github.com/quantract/certledger/pkg/certpdf"
)

// Store is the persistence contract of the ledger. Implementations map
// missing rows to ErrNotFound, unique violations to ErrConflict and failed
// status guards to ErrInvalidState.
type Store interface {
	GetCertificate(ctx context.Context, id string) (*model.Certificate, error)
	GetCertificateByToken(ctx context.Context, token string) (*model.Certificate, error)
	CreateCertificate(ctx context.Context, c *model.Certificate) error
	// UpdateDraft writes the editable columns and sets status to draft, only
	// while the row is still in an editable status.
	UpdateDraft(ctx context.Context, c *model.Certificate) error
	TransitionStatus(ctx context.Context, id string, from, to constant.CertificateStatus) error

	// LatestRevisionNumber returns 0 when the certificate has no revisions.
	LatestRevisionNumber(ctx context.Context, certificateID string) (int, error)
	LatestRevision(ctx context.Context, certificateID string) (*model.CertificateRevision, error)
	GetRevision(ctx context.Context, certificateID string, revision int) (*model.CertificateRevision, error)
	ListRevisions(ctx context.Context, certificateID string) ([]model.CertificateRevision, error)

	// CommitIssuance atomically inserts rev, sets the verification token when
	// the certificate has none, and moves the certificate from completed to
	// issued. publish runs once both writes hold, before the commit, so only
	// the issuer that owns the revision number writes its artifact; an error
	// from publish aborts the commit. publish may be nil.
	CommitIssuance(ctx context.Context, rev *model.CertificateRevision, token string, publish func(context.Context) error) error
	// CommitReissue atomically marks the original superseded and inserts the
	// draft successor.
	CommitReissue(ctx context.Context, originalID string, successor *model.Certificate) error
	// UpdateRevisionArtifact replaces the artifact columns of a revision, only
	// while its signing hash still equals signingHash.
	UpdateRevisionArtifact(ctx context.Context, revisionID, signingHash, pdfKey, pdfChecksum string, regeneratedAt time.Time) error
	SetRevocation(ctx context.Context, certificateID string, revokedAt *time.Time, reason *string) error
}

// Renderer turns a snapshot into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, snap *document.Snapshot, branding certpdf.Branding) ([]byte, error)
}

// BrandingSource supplies the presentation for a certificate. The
// certificate passed in carries the verification token it will be issued
// with.
type BrandingSource interface {
	BrandingFor(ctx context.Context, cert *model.Certificate) certpdf.Branding
}

// Actor is the authenticated caller of an admin operation.
type Actor struct {
	UserID    string
	CompanyID string
	Role      constant.CompanyRole
}
