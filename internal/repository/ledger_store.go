package repository

import (
	"context"
	"time"

	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/model"
	"gorm.io/gorm"
)

// LedgerStore is the Postgres-backed ledger.Store.
type LedgerStore struct {
	repo *Repository
}

var _ ledger.Store = (*LedgerStore)(nil)

func NewLedgerStore(repo *Repository) *LedgerStore {
	return &LedgerStore{repo: repo}
}

func (s *LedgerStore) GetCertificate(ctx context.Context, id string) (*model.Certificate, error) {
	return s.repo.Certificate.GetById(ctx, nil, id)
}

func (s *LedgerStore) GetCertificateByToken(ctx context.Context, token string) (*model.Certificate, error) {
	return s.repo.Certificate.GetByToken(ctx, nil, token)
}

func (s *LedgerStore) CreateCertificate(ctx context.Context, c *model.Certificate) error {
	return s.repo.Certificate.Create(ctx, nil, c)
}

func (s *LedgerStore) UpdateDraft(ctx context.Context, c *model.Certificate) error {
	return s.repo.Certificate.UpdateDraft(ctx, nil, c)
}

func (s *LedgerStore) TransitionStatus(ctx context.Context, id string, from, to constant.CertificateStatus) error {
	return s.repo.Certificate.TransitionStatus(ctx, nil, id, from, to)
}

func (s *LedgerStore) LatestRevisionNumber(ctx context.Context, certificateID string) (int, error) {
	return s.repo.Revision.LatestNumber(ctx, nil, certificateID)
}

func (s *LedgerStore) LatestRevision(ctx context.Context, certificateID string) (*model.CertificateRevision, error) {
	return s.repo.Revision.Latest(ctx, nil, certificateID)
}

func (s *LedgerStore) GetRevision(ctx context.Context, certificateID string, revision int) (*model.CertificateRevision, error) {
	return s.repo.Revision.Get(ctx, nil, certificateID, revision)
}

func (s *LedgerStore) ListRevisions(ctx context.Context, certificateID string) ([]model.CertificateRevision, error) {
	return s.repo.Revision.List(ctx, nil, certificateID)
}

// CommitIssuance inserts the revision and flips the certificate in one
// transaction. A concurrent issuer of the same revision number blocks on the
// (certificate_id, revision) unique index until this transaction ends, then
// fails, so it never reaches publish.
func (s *LedgerStore) CommitIssuance(ctx context.Context, rev *model.CertificateRevision, token string, publish func(context.Context) error) error {
	return s.repo.Revision.withTx(s.repo.DB, func(tx *gorm.DB) error {
		if err := s.repo.Revision.Create(ctx, tx, rev); err != nil {
			return err
		}
		if err := s.repo.Certificate.MarkIssued(ctx, tx, rev.CertificateID, token); err != nil {
			return err
		}
		if publish == nil {
			return nil
		}
		return publish(ctx)
	})
}

func (s *LedgerStore) CommitReissue(ctx context.Context, originalID string, successor *model.Certificate) error {
	return s.repo.Certificate.withTx(s.repo.DB, func(tx *gorm.DB) error {
		if err := s.repo.Certificate.TransitionStatus(ctx, tx, originalID, constant.CertificateStatusIssued, constant.CertificateStatusSuperseded); err != nil {
			return err
		}
		return s.repo.Certificate.Create(ctx, tx, successor)
	})
}

func (s *LedgerStore) UpdateRevisionArtifact(ctx context.Context, revisionID, signingHash, pdfKey, pdfChecksum string, regeneratedAt time.Time) error {
	return s.repo.Revision.UpdateArtifact(ctx, nil, revisionID, signingHash, pdfKey, pdfChecksum, regeneratedAt)
}

func (s *LedgerStore) SetRevocation(ctx context.Context, certificateID string, revokedAt *time.Time, reason *string) error {
	return s.repo.Certificate.SetRevocation(ctx, nil, certificateID, revokedAt, reason)
}
