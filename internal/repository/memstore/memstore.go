// Package memstore is an in-memory ledger.Store for tests and local runs. It
// enforces the same uniqueness and status guards as the Postgres schema.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/model"
	"gorm.io/datatypes"
)

type revisionKey struct {
	certificateID string
	revision      int
}

type Store struct {
	mu        sync.RWMutex
	certs     map[string]*model.Certificate
	revisions map[revisionKey]*model.CertificateRevision
	now       func() time.Time

	// BeforeCommit, when set, runs inside CommitIssuance before any check.
	// Tests use it to interleave concurrent issuers.
	BeforeCommit func(rev *model.CertificateRevision)
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		certs:     make(map[string]*model.Certificate),
		revisions: make(map[revisionKey]*model.CertificateRevision),
		now:       time.Now,
	}
}

func cloneCert(c *model.Certificate) *model.Certificate {
	out := *c
	out.Content = append(datatypes.JSON(nil), c.Content...)
	out.Attachments = append(datatypes.JSON(nil), c.Attachments...)
	if c.VerificationToken != nil {
		t := *c.VerificationToken
		out.VerificationToken = &t
	}
	if c.VerificationRevokedAt != nil {
		t := *c.VerificationRevokedAt
		out.VerificationRevokedAt = &t
	}
	if c.VerificationRevokedReason != nil {
		r := *c.VerificationRevokedReason
		out.VerificationRevokedReason = &r
	}
	if c.ParentID != nil {
		p := *c.ParentID
		out.ParentID = &p
	}
	return &out
}

func cloneRev(r *model.CertificateRevision) *model.CertificateRevision {
	out := *r
	out.Content = append(datatypes.JSON(nil), r.Content...)
	if r.RegeneratedAt != nil {
		t := *r.RegeneratedAt
		out.RegeneratedAt = &t
	}
	return &out
}

func (s *Store) GetCertificate(_ context.Context, id string) (*model.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.certs[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return cloneCert(c), nil
}

func (s *Store) GetCertificateByToken(_ context.Context, token string) (*model.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.certs {
		if c.VerificationToken != nil && *c.VerificationToken == token {
			return cloneCert(c), nil
		}
	}
	return nil, ledger.ErrNotFound
}

// insertLocked mirrors the certificates unique indexes.
func (s *Store) insertLocked(c *model.Certificate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, ok := s.certs[c.ID]; ok {
		return ledger.ErrConflict
	}
	for _, other := range s.certs {
		if other.CompanyID == c.CompanyID && other.Number == c.Number {
			return ledger.ErrConflict
		}
	}
	now := s.now().UTC()
	c.CreatedAt = &now
	c.UpdatedAt = &now
	s.certs[c.ID] = cloneCert(c)
	return nil
}

func (s *Store) CreateCertificate(_ context.Context, c *model.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(c)
}

func (s *Store) UpdateDraft(_ context.Context, c *model.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.certs[c.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	if !cur.Status.Editable() {
		return ledger.ErrInvalidState
	}

	cur.InspectorName = c.InspectorName
	cur.InspectorRegistration = c.InspectorRegistration
	cur.ClientName = c.ClientName
	cur.SiteAddress = c.SiteAddress
	cur.Content = append(datatypes.JSON(nil), c.Content...)
	cur.Attachments = append(datatypes.JSON(nil), c.Attachments...)
	cur.Status = constant.CertificateStatusDraft
	now := s.now().UTC()
	cur.UpdatedAt = &now
	return nil
}

func (s *Store) TransitionStatus(_ context.Context, id string, from, to constant.CertificateStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.certs[id]
	if !ok {
		return ledger.ErrNotFound
	}
	if cur.Status != from {
		return ledger.ErrInvalidState
	}
	cur.Status = to
	now := s.now().UTC()
	cur.UpdatedAt = &now
	return nil
}

func (s *Store) latestLocked(certificateID string) int {
	n := 0
	for k := range s.revisions {
		if k.certificateID == certificateID && k.revision > n {
			n = k.revision
		}
	}
	return n
}

func (s *Store) LatestRevisionNumber(_ context.Context, certificateID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestLocked(certificateID), nil
}

func (s *Store) LatestRevision(_ context.Context, certificateID string) (*model.CertificateRevision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.latestLocked(certificateID)
	if n == 0 {
		return nil, ledger.ErrNotFound
	}
	return cloneRev(s.revisions[revisionKey{certificateID, n}]), nil
}

func (s *Store) GetRevision(_ context.Context, certificateID string, revision int) (*model.CertificateRevision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.revisions[revisionKey{certificateID, revision}]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return cloneRev(r), nil
}

func (s *Store) ListRevisions(_ context.Context, certificateID string) ([]model.CertificateRevision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CertificateRevision, 0)
	for k, r := range s.revisions {
		if k.certificateID == certificateID {
			out = append(out, *cloneRev(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revision < out[j].Revision })
	return out, nil
}

func (s *Store) CommitIssuance(ctx context.Context, rev *model.CertificateRevision, token string, publish func(context.Context) error) error {
	if s.BeforeCommit != nil {
		s.BeforeCommit(rev)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certs[rev.CertificateID]
	if !ok {
		return ledger.ErrNotFound
	}
	key := revisionKey{rev.CertificateID, rev.Revision}
	if _, exists := s.revisions[key]; exists {
		return ledger.ErrConflict
	}
	if cert.Status != constant.CertificateStatusCompleted {
		return ledger.ErrInvalidState
	}
	if !cert.HasToken() {
		for _, other := range s.certs {
			if other.VerificationToken != nil && *other.VerificationToken == token {
				return ledger.ErrConflict
			}
		}
	}

	// The lock stands in for the row locks of the SQL transaction.
	if publish != nil {
		if err := publish(ctx); err != nil {
			return err
		}
	}

	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	now := s.now().UTC()
	rev.CreatedAt = &now
	s.revisions[key] = cloneRev(rev)

	if !cert.HasToken() {
		t := token
		cert.VerificationToken = &t
	}
	cert.Status = constant.CertificateStatusIssued
	cert.UpdatedAt = &now
	return nil
}

func (s *Store) CommitReissue(_ context.Context, originalID string, successor *model.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.certs[originalID]
	if !ok {
		return ledger.ErrNotFound
	}
	if original.Status != constant.CertificateStatusIssued {
		return ledger.ErrInvalidState
	}
	if err := s.insertLocked(successor); err != nil {
		return err
	}
	original.Status = constant.CertificateStatusSuperseded
	return nil
}

func (s *Store) UpdateRevisionArtifact(_ context.Context, revisionID, signingHash, pdfKey, pdfChecksum string, regeneratedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.revisions {
		if r.ID != revisionID {
			continue
		}
		if r.SigningHash != signingHash {
			return ledger.ErrImmutableRevision
		}
		t := regeneratedAt
		r.PdfKey = pdfKey
		r.PdfChecksum = pdfChecksum
		r.RegeneratedAt = &t
		return nil
	}
	return ledger.ErrNotFound
}

func (s *Store) SetRevocation(_ context.Context, certificateID string, revokedAt *time.Time, reason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, ok := s.certs[certificateID]
	if !ok {
		return ledger.ErrNotFound
	}
	if revokedAt == nil {
		cert.VerificationRevokedAt = nil
		cert.VerificationRevokedReason = nil
		return nil
	}
	t := *revokedAt
	cert.VerificationRevokedAt = &t
	if reason != nil {
		r := *reason
		cert.VerificationRevokedReason = &r
	}
	return nil
}

// TamperRevisionContent overwrites stored snapshot bytes, bypassing the
// immutability guard. Tests use it to simulate tampering at rest.
func (s *Store) TamperRevisionContent(certificateID string, revision int, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.revisions[revisionKey{certificateID, revision}]; ok {
		r.Content = append(datatypes.JSON(nil), content...)
	}
}
