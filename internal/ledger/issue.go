package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantract/certledger/internal/audit"
	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/document"
	filestorage "github.com/quantract/certledger/internal/file_storage"
	"github.com/quantract/certledger/internal/metrics"
	"github.com/quantract/certledger/internal/model"
	"github.com/quantract/certledger/pkg/digest"
	"gorm.io/datatypes"
)

// Issue freezes a completed certificate into its next revision, renders and
// stores the PDF, and mints the verification token on first issuance.
//
// Revision numbers come from the storage uniqueness constraint: a concurrent
// issuer that loses the insert race re-reads and recomputes, up to
// Config.MaxAttempts times. Only the winner uploads its PDF. Nothing is
// persisted when rendering or storage fails.
func (s *Service) Issue(ctx context.Context, certificateID string, actor Actor) (*model.CertificateRevision, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		rev, err := s.issueOnce(ctx, certificateID, actor)
		if err == nil {
			s.logger.Infow("Certificate issued", "certificateId", certificateID, "revision", rev.Revision, "attempt", attempt)
			s.metrics.Issuance(metrics.OutcomeSuccess, attempt)
			return rev, nil
		}
		if !errors.Is(err, ErrConflict) {
			s.logger.Warnw("Certificate issuance failed", "certificateId", certificateID, "attempt", attempt, "error", err)
			s.metrics.Issuance(issuanceOutcome(err), attempt)
			return nil, err
		}

		lastErr = err
		s.logger.Warnw("Revision conflict, retrying issuance", "certificateId", certificateID, "attempt", attempt)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	s.metrics.Issuance(metrics.OutcomeConflict, s.cfg.MaxAttempts)
	return nil, &ConflictError{Attempts: s.cfg.MaxAttempts, Err: lastErr}
}

func (s *Service) issueOnce(ctx context.Context, certificateID string, actor Actor) (*model.CertificateRevision, error) {
	cert, err := s.loadOwned(ctx, certificateID, actor)
	if err != nil {
		return nil, err
	}
	if cert.Status != constant.CertificateStatusCompleted {
		return nil, invalidState(cert, "issue")
	}

	draft, err := cert.Draft()
	if err != nil {
		return nil, s.undecodable(cert, err)
	}
	if r := document.CheckReadiness(draft); !r.OK {
		return nil, &ValidationError{Missing: r.Missing}
	}

	latest, err := s.store.LatestRevisionNumber(ctx, cert.ID)
	if err != nil {
		return nil, err
	}
	next := latest + 1

	// Postgres keeps microseconds; truncate so the row and the snapshot agree.
	issuedAt := s.now().UTC().Truncate(time.Microsecond)
	snap, err := document.NewSnapshot(draft, document.Meta{
		CertificateID:     cert.ID,
		CertificateNumber: cert.Number,
		CompanyID:         cert.CompanyID,
		Revision:          next,
		IssuedAt:          issuedAt,
	})
	if err != nil {
		return nil, &ValidationError{Missing: []string{"body"}, Cause: err}
	}
	content := snap.Bytes()
	signingHash := digest.Sum(content)

	token := ""
	if cert.HasToken() {
		token = *cert.VerificationToken
	} else {
		token, err = s.newToken()
		if err != nil {
			return nil, fmt.Errorf("mint verification token: %w", err)
		}
	}
	branded := *cert
	branded.VerificationToken = &token

	pdf, err := s.renderer.Render(ctx, snap, s.branding.BrandingFor(ctx, &branded))
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	checksum := digest.Sum(pdf)

	key := filestorage.RevisionPDFKey(cert.ID, next)
	rev := &model.CertificateRevision{
		CertificateID: cert.ID,
		Revision:      next,
		Content:       datatypes.JSON(content),
		SigningHash:   signingHash.Hex(),
		PdfKey:        key,
		PdfChecksum:   checksum.Hex(),
		IssuedAt:      issuedAt,
		IssuedBy:      actor.UserID,
	}
	// The upload runs inside the commit: a racing issuer of the same number
	// fails before it can overwrite the winner's PDF.
	publish := func(ctx context.Context) error {
		if err := s.blobs.Put(ctx, key, pdf, filestorage.Meta{ContentType: "application/pdf", CID: checksum.CID()}); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		return nil
	}
	if err := s.store.CommitIssuance(ctx, rev, token, publish); err != nil {
		return nil, err
	}

	s.record(audit.ActionIssued, cert, actor, rev.Revision, "signing hash "+rev.SigningHash)
	return rev, nil
}
