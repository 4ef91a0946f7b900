// Package verification is the public, unauthenticated read path for issued
// certificates, plus the admin switch that revokes it.
package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantract/certledger/internal/audit"
	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/document"
	filestorage "github.com/quantract/certledger/internal/file_storage"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/metrics"
	"github.com/quantract/certledger/internal/model"
	"github.com/quantract/certledger/internal/util"
	"github.com/quantract/certledger/pkg/canonical"
	"github.com/quantract/certledger/pkg/digest"
	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeValid             Outcome = "valid"
	OutcomeIntegrityMismatch Outcome = "integrity_mismatch"
)

const (
	formatJSON = "json"
	formatPDF  = "pdf"

	healMissing  = "missing"
	healMismatch = "checksum_mismatch"

	systemActor = "system"
)

// PublicRecord is everything a third party learns about a certificate. It
// carries no internal identifiers beyond those bound into the snapshot.
type PublicRecord struct {
	SchemaVersion     int             `json:"schemaVersion"`
	CertificateNumber string          `json:"certificateNumber"`
	Type              document.Type   `json:"type"`
	Revision          int             `json:"revision"`
	IssuedAt          time.Time       `json:"issuedAt"`
	SigningHash       string          `json:"signingHash"`
	PdfChecksum       string          `json:"pdfChecksum"`
	Outcome           Outcome         `json:"outcome"`
	Snapshot          json.RawMessage `json:"snapshot"`
}

type PublicPDF struct {
	Data        []byte
	Filename    string
	Checksum    string
	CID         string
	Revision    int
	Regenerated bool
}

type Gate struct {
	store    ledger.Store
	blobs    filestorage.Store
	renderer ledger.Renderer
	branding ledger.BrandingSource
	events   audit.Sink
	metrics  *metrics.Metrics
	logger   *zap.SugaredLogger
	now      func() time.Time
}

type Option func(*Gate)

func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func WithEvents(sink audit.Sink) Option {
	return func(g *Gate) { g.events = sink }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) { g.metrics = m }
}

func NewGate(store ledger.Store, blobs filestorage.Store, renderer ledger.Renderer, branding ledger.BrandingSource, logger *zap.SugaredLogger, opts ...Option) *Gate {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	g := &Gate{
		store:    store,
		blobs:    blobs,
		renderer: renderer,
		branding: branding,
		events:   audit.Discard{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// resolve applies the gate in order: token shape, lookup, status,
// revocation, latest revision. Every miss is the same ErrNotFound.
func (g *Gate) resolve(ctx context.Context, token string) (*model.Certificate, *model.CertificateRevision, error) {
	if !util.IsWellFormedToken(token) {
		return nil, nil, ledger.ErrNotFound
	}

	cert, err := g.store.GetCertificateByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if cert.Status != constant.CertificateStatusIssued {
		return nil, nil, ledger.ErrNotFound
	}
	if cert.IsRevoked() {
		return nil, nil, &ledger.RevokedError{Reason: cert.RevokedReason()}
	}

	rev, err := g.store.LatestRevision(ctx, cert.ID)
	if err != nil {
		return nil, nil, err
	}
	return cert, rev, nil
}

// intact reports whether the stored snapshot still hashes to its signing
// hash and is in canonical form.
func intact(rev *model.CertificateRevision) bool {
	return digest.Matches(rev.Content, rev.SigningHash) && canonical.IsCanonical(rev.Content)
}

func (g *Gate) ResolveRecord(ctx context.Context, token string) (*PublicRecord, error) {
	cert, rev, err := g.resolve(ctx, token)
	if err != nil {
		g.metrics.Verification(formatJSON, resultLabel(err))
		return nil, err
	}

	record := &PublicRecord{
		SchemaVersion:     document.SchemaVersion,
		CertificateNumber: cert.Number,
		Type:              cert.Type,
		Revision:          rev.Revision,
		IssuedAt:          rev.IssuedAt.UTC(),
		SigningHash:       rev.SigningHash,
		PdfChecksum:       rev.PdfChecksum,
		Outcome:           OutcomeValid,
	}

	if json.Valid(rev.Content) {
		record.Snapshot = json.RawMessage(rev.Content)
	} else {
		record.Snapshot = json.RawMessage("null")
	}
	if snap, err := document.ParseSnapshot(rev.Content); err == nil {
		record.SchemaVersion = snap.SchemaVersion
	}
	if !intact(rev) {
		record.Outcome = OutcomeIntegrityMismatch
		g.logger.Errorw("Stored snapshot does not match its signing hash", "certificateId", cert.ID, "revision", rev.Revision)
	}

	g.metrics.Verification(formatJSON, string(record.Outcome))
	return record, nil
}

// ResolvePDF serves the latest revision's PDF, regenerating it from the
// stored snapshot when the blob is missing or does not match its checksum.
func (g *Gate) ResolvePDF(ctx context.Context, token string) (*PublicPDF, error) {
	cert, rev, err := g.resolve(ctx, token)
	if err != nil {
		g.metrics.Verification(formatPDF, resultLabel(err))
		return nil, err
	}

	out := &PublicPDF{
		Filename: fmt.Sprintf("certificate_%s_rev%d.pdf", cert.Number, rev.Revision),
		Revision: rev.Revision,
	}

	data, err := g.blobs.Get(ctx, rev.PdfKey)
	reason := ""
	switch {
	case err == nil && digest.Matches(data, rev.PdfChecksum):
		out.Data = data
		out.Checksum = rev.PdfChecksum
		out.CID = digest.Sum(data).CID()
		g.metrics.Verification(formatPDF, string(OutcomeValid))
		return out, nil
	case err == nil:
		reason = healMismatch
	case filestorage.IsNotFound(err):
		reason = healMissing
	default:
		g.logger.Warnw("Artifact storage unavailable", "certificateId", cert.ID, "revision", rev.Revision, "error", err)
		g.metrics.Verification(formatPDF, resultLabel(ledger.ErrStorageUnavailable))
		return nil, fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
	}

	data, checksum, err := g.heal(ctx, cert, rev, reason)
	if err != nil {
		g.metrics.Verification(formatPDF, resultLabel(err))
		return nil, err
	}

	out.Data = data
	out.Checksum = checksum.Hex()
	out.CID = checksum.CID()
	out.Regenerated = true
	g.metrics.Verification(formatPDF, string(OutcomeValid))
	return out, nil
}

// heal re-renders rev from its stored snapshot, overwrites the blob and
// records the new checksum. Concurrent heals of the same revision render the
// same snapshot; the last writer wins.
func (g *Gate) heal(ctx context.Context, cert *model.Certificate, rev *model.CertificateRevision, reason string) ([]byte, digest.Hash, error) {
	g.logger.Warnw("Regenerating certificate artifact", "certificateId", cert.ID, "revision", rev.Revision, "reason", reason)

	if !digest.Matches(rev.Content, rev.SigningHash) {
		g.metrics.SelfHeal(reason, metrics.OutcomeInvalid)
		g.logger.Errorw("Refusing to regenerate from a snapshot that fails its signing hash", "certificateId", cert.ID, "revision", rev.Revision)
		return nil, digest.Hash{}, ledger.ErrUnavailable
	}
	snap, err := document.ParseSnapshot(rev.Content)
	if err != nil {
		g.metrics.SelfHeal(reason, metrics.OutcomeInvalid)
		return nil, digest.Hash{}, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}

	pdf, err := g.renderer.Render(ctx, snap, g.branding.BrandingFor(ctx, cert))
	if err != nil {
		g.metrics.SelfHeal(reason, metrics.OutcomeRenderError)
		return nil, digest.Hash{}, fmt.Errorf("%w: %v", ledger.ErrUnavailable, &ledger.RenderError{Err: err})
	}
	checksum := digest.Sum(pdf)

	if err := g.blobs.Put(ctx, rev.PdfKey, pdf, filestorage.Meta{ContentType: "application/pdf", CID: checksum.CID()}); err != nil {
		g.metrics.SelfHeal(reason, metrics.OutcomeStorage)
		return nil, digest.Hash{}, fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
	}

	now := g.now().UTC()
	if err := g.store.UpdateRevisionArtifact(ctx, rev.ID, rev.SigningHash, rev.PdfKey, checksum.Hex(), now); err != nil {
		// The blob is already valid for this snapshot; the next read heals
		// the recorded checksum again.
		g.logger.Errorw("Failed to record regenerated artifact", "certificateId", cert.ID, "revision", rev.Revision, "error", err)
	}

	g.metrics.SelfHeal(reason, metrics.OutcomeSuccess)
	g.events.Record(audit.Event{
		Action:        audit.ActionRegenerated,
		CompanyID:     cert.CompanyID,
		CertificateID: cert.ID,
		Actor:         systemActor,
		Revision:      rev.Revision,
		Description:   reason,
		At:            now,
	})
	return pdf, checksum, nil
}

func resultLabel(err error) string {
	var revoked *ledger.RevokedError
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return "not_found"
	case errors.As(err, &revoked):
		return "revoked"
	case errors.Is(err, ledger.ErrStorageUnavailable):
		return metrics.OutcomeStorage
	case errors.Is(err, ledger.ErrUnavailable):
		return "unavailable"
	}
	return metrics.OutcomeError
}
