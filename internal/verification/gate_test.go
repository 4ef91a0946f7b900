package verification_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/document"
	filestorage "github.com/quantract/certledger/internal/file_storage"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/model"
	"github.com/quantract/certledger/internal/repository/memstore"
	"github.com/quantract/certledger/internal/verification"
	"github.com/quantract/certledger/pkg/certpdf"
	"github.com/quantract/certledger/pkg/digest"
)

type fakeRenderer struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (r *fakeRenderer) Render(_ context.Context, snap *document.Snapshot, b certpdf.Branding) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail != nil {
		return nil, r.fail
	}
	return []byte(fmt.Sprintf("%%PDF-1.7 %s rev%d %s", snap.CertificateNumber, snap.Revision, b.VerificationURL)), nil
}

type fixture struct {
	svc      *ledger.Service
	gate     *verification.Gate
	store    *memstore.Store
	blobs    *filestorage.MemoryStore
	renderer *fakeRenderer
}

var (
	admin = ledger.Actor{UserID: "admin-1", CompanyID: "company-1", Role: constant.CompanyRoleAdmin}
	other = ledger.Actor{UserID: "admin-2", CompanyID: "company-2", Role: constant.CompanyRoleAdmin}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memstore.New(),
		blobs:    filestorage.NewMemoryStore(),
		renderer: &fakeRenderer{},
	}
	branding := ledger.StaticBranding{CompanyName: "Acme Electrical", PublicBaseURL: "https://verify.example"}
	clock := func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }

	f.svc = ledger.NewService(f.store, f.blobs, f.renderer, branding, nil, ledger.Config{}, ledger.WithClock(clock))
	f.gate = verification.NewGate(f.store, f.blobs, f.renderer, branding, nil, verification.WithClock(clock))
	return f
}

func minorWorksInput() ledger.DraftInput {
	return ledger.DraftInput{
		Type: document.TypeMinorWorks,
		Header: document.Header{
			InspectorName:         "A. Sparks",
			InspectorRegistration: "NIC-12345",
			ClientName:            "Acme Lettings",
			SiteAddress:           "1 High St",
		},
		Content: json.RawMessage(`{"descriptionOfWork":"Add socket","dateOfCompletion":"2025-02-28","earthing":"TN-S","circuit":{"ref":"3","ratingAmps":20}}`),
	}
}

// issue drives a certificate to its first revision and returns it with its
// token.
func (f *fixture) issue(t *testing.T) (*model.Certificate, *model.CertificateRevision, string) {
	t.Helper()
	ctx := context.Background()

	cert, err := f.svc.CreateDraft(ctx, admin, minorWorksInput())
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := f.svc.Complete(ctx, cert.ID, admin); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	rev, err := f.svc.Issue(ctx, cert.ID, admin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	issued, err := f.svc.Get(ctx, cert.ID, admin)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return issued, rev, *issued.VerificationToken
}

func TestExampleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cert, rev, token := f.issue(t)

	// The blob is lost.
	if err := f.blobs.Delete(ctx, rev.PdfKey); err != nil {
		t.Fatalf("Delete blob: %v", err)
	}
	f.renderer.mu.Lock()
	before := f.renderer.calls
	f.renderer.mu.Unlock()

	pdf, err := f.gate.ResolvePDF(ctx, token)
	if err != nil {
		t.Fatalf("ResolvePDF after blob loss: %v", err)
	}
	if !pdf.Regenerated || f.renderer.calls != before+1 {
		t.Fatalf("expected one regeneration, Regenerated=%v calls=%d", pdf.Regenerated, f.renderer.calls-before)
	}
	if pdf.Filename != fmt.Sprintf("certificate_%s_rev1.pdf", cert.Number) {
		t.Fatalf("Filename = %s", pdf.Filename)
	}

	healed, err := f.store.LatestRevision(ctx, cert.ID)
	if err != nil {
		t.Fatalf("LatestRevision: %v", err)
	}
	if healed.SigningHash != rev.SigningHash || !bytes.Equal(healed.Content, rev.Content) {
		t.Fatalf("self-heal changed the signed content")
	}
	if healed.PdfChecksum != digest.Sum(pdf.Data).Hex() || healed.RegeneratedAt == nil {
		t.Fatalf("self-heal did not record the new artifact: %+v", healed)
	}

	// Revoke: both formats answer 403 with the reason.
	if _, err := f.gate.Revoke(ctx, cert.ID, "Issued in error", admin); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	_, err = f.gate.ResolveRecord(ctx, token)
	var revoked *ledger.RevokedError
	if !errors.As(err, &revoked) || revoked.Reason != "Issued in error" {
		t.Fatalf("ResolveRecord after revoke = %v", err)
	}
	if _, err := f.gate.ResolvePDF(ctx, token); !errors.As(err, &revoked) {
		t.Fatalf("ResolvePDF after revoke = %v", err)
	}

	// Restore: revision 1 is served again.
	if _, err := f.gate.Restore(ctx, cert.ID, admin); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	record, err := f.gate.ResolveRecord(ctx, token)
	if err != nil {
		t.Fatalf("ResolveRecord after restore: %v", err)
	}
	if record.Revision != 1 || record.Outcome != verification.OutcomeValid {
		t.Fatalf("record = rev %d outcome %s", record.Revision, record.Outcome)
	}
	if record.SigningHash != rev.SigningHash {
		t.Fatalf("signing hash changed across revoke/restore")
	}
}

func TestResolveRecordProjection(t *testing.T) {
	f := newFixture(t)
	cert, rev, token := f.issue(t)

	record, err := f.gate.ResolveRecord(context.Background(), token)
	if err != nil {
		t.Fatalf("ResolveRecord: %v", err)
	}
	if record.CertificateNumber != cert.Number || record.Type != document.TypeMinorWorks {
		t.Fatalf("record = %+v", record)
	}
	if record.SchemaVersion != document.SchemaVersion || record.PdfChecksum != rev.PdfChecksum {
		t.Fatalf("record = %+v", record)
	}
	if !bytes.Equal(record.Snapshot, rev.Content) {
		t.Fatalf("snapshot is not the stored bytes")
	}

	body, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"schemaVersion"`, `"certificateNumber"`, `"type"`, `"revision"`, `"issuedAt"`, `"signingHash"`, `"pdfChecksum"`, `"outcome":"valid"`, `"snapshot"`} {
		if !strings.Contains(string(body), key) {
			t.Errorf("record JSON missing %s: %s", key, body)
		}
	}
	if strings.Contains(string(body), token) {
		t.Errorf("record JSON leaks the token")
	}
}

func TestGateNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cert, _, token := f.issue(t)

	tests := []struct {
		name  string
		token string
		setup func()
	}{
		{"malformed token", "not-a-token", nil},
		{"short hex token", strings.Repeat("a", 40), nil},
		{"unknown token", strings.Repeat("0", 64), nil},
		{"voided certificate", token, func() {
			if _, err := f.svc.Void(ctx, cert.ID, admin); err != nil {
				t.Fatalf("Void: %v", err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			if _, err := f.gate.ResolveRecord(ctx, tt.token); !errors.Is(err, ledger.ErrNotFound) {
				t.Fatalf("ResolveRecord = %v, want ErrNotFound", err)
			}
			if _, err := f.gate.ResolvePDF(ctx, tt.token); !errors.Is(err, ledger.ErrNotFound) {
				t.Fatalf("ResolvePDF = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestTamperedSnapshotIsFlagged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cert, rev, token := f.issue(t)

	tampered := bytes.Replace(rev.Content, []byte("Add socket"), []byte("Add sockex"), 1)
	f.store.TamperRevisionContent(cert.ID, rev.Revision, tampered)

	record, err := f.gate.ResolveRecord(ctx, token)
	if err != nil {
		t.Fatalf("ResolveRecord: %v", err)
	}
	if record.Outcome != verification.OutcomeIntegrityMismatch {
		t.Fatalf("Outcome = %s, want integrity_mismatch", record.Outcome)
	}

	// A tampered snapshot is never used to regenerate a PDF.
	if err := f.blobs.Delete(ctx, rev.PdfKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.gate.ResolvePDF(ctx, token); !errors.Is(err, ledger.ErrUnavailable) {
		t.Fatalf("ResolvePDF = %v, want ErrUnavailable", err)
	}
}

func TestNonCanonicalSnapshotIsFlagged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cert, rev, token := f.issue(t)

	// Same JSON value, different bytes: the hash no longer matches either.
	spaced := append([]byte(" "), rev.Content...)
	f.store.TamperRevisionContent(cert.ID, rev.Revision, spaced)

	record, err := f.gate.ResolveRecord(ctx, token)
	if err != nil {
		t.Fatalf("ResolveRecord: %v", err)
	}
	if record.Outcome != verification.OutcomeIntegrityMismatch {
		t.Fatalf("Outcome = %s", record.Outcome)
	}
}

func TestSelfHealOnChecksumMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, rev, token := f.issue(t)

	f.blobs.Corrupt(rev.PdfKey, []byte("%PDF-1.7 truncated"))

	pdf, err := f.gate.ResolvePDF(ctx, token)
	if err != nil {
		t.Fatalf("ResolvePDF: %v", err)
	}
	if !pdf.Regenerated {
		t.Fatalf("corrupt blob was served without regeneration")
	}
	stored, err := f.blobs.Get(ctx, rev.PdfKey)
	if err != nil || !bytes.Equal(stored, pdf.Data) {
		t.Fatalf("regenerated pdf not written back: %v", err)
	}
}

func TestSelfHealIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, rev, token := f.issue(t)

	if err := f.blobs.Delete(ctx, rev.PdfKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	first, err := f.gate.ResolvePDF(ctx, token)
	if err != nil {
		t.Fatalf("first ResolvePDF: %v", err)
	}
	second, err := f.gate.ResolvePDF(ctx, token)
	if err != nil {
		t.Fatalf("second ResolvePDF: %v", err)
	}
	if second.Regenerated {
		t.Fatalf("healed artifact regenerated again")
	}
	if first.Checksum != second.Checksum || first.CID != second.CID {
		t.Fatalf("checksum changed between reads")
	}
}

func TestConcurrentSelfHeal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cert, rev, token := f.issue(t)

	if err := f.blobs.Delete(ctx, rev.PdfKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.gate.ResolvePDF(ctx, token); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent ResolvePDF: %v", err)
	}

	healed, _ := f.store.LatestRevision(ctx, cert.ID)
	data, err := f.blobs.Get(ctx, healed.PdfKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if digest.Sum(data).Hex() != healed.PdfChecksum || healed.SigningHash != rev.SigningHash {
		t.Fatalf("ledger and blob disagree after concurrent heals")
	}
}

func TestSelfHealFailures(t *testing.T) {
	t.Run("renderer down", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		_, rev, token := f.issue(t)

		_ = f.blobs.Delete(ctx, rev.PdfKey)
		f.renderer.fail = errors.New("renderer crashed")
		if _, err := f.gate.ResolvePDF(ctx, token); !errors.Is(err, ledger.ErrUnavailable) {
			t.Fatalf("ResolvePDF = %v, want ErrUnavailable", err)
		}
	})

	t.Run("storage unreachable", func(t *testing.T) {
		f := newFixture(t)
		_, _, token := f.issue(t)

		f.blobs.SetUnavailable(true)
		if _, err := f.gate.ResolvePDF(context.Background(), token); !errors.Is(err, ledger.ErrStorageUnavailable) {
			t.Fatalf("ResolvePDF = %v, want ErrStorageUnavailable", err)
		}
	})
}

func TestTokenResolvesToLatestRevision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cert, _, token := f.issue(t)

	// A second revision committed under the same token, as a correction
	// flow would do, is what the token serves from then on.
	if err := f.store.TransitionStatus(ctx, cert.ID, constant.CertificateStatusIssued, constant.CertificateStatusCompleted); err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	rev2, err := f.svc.Issue(ctx, cert.ID, admin)
	if err != nil {
		t.Fatalf("Issue rev 2: %v", err)
	}
	if rev2.Revision != 2 {
		t.Fatalf("Revision = %d", rev2.Revision)
	}

	again, _ := f.svc.Get(ctx, cert.ID, admin)
	if *again.VerificationToken != token {
		t.Fatalf("token changed on second issuance")
	}
	record, err := f.gate.ResolveRecord(ctx, token)
	if err != nil {
		t.Fatalf("ResolveRecord: %v", err)
	}
	if record.Revision != 2 {
		t.Fatalf("token served revision %d, want 2", record.Revision)
	}
}

func TestRevocationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cert, _, _ := f.issue(t)

	draft, err := f.svc.CreateDraft(ctx, admin, minorWorksInput())
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	if _, err := f.gate.Revoke(ctx, draft.ID, "typo", admin); !errors.Is(err, ledger.ErrNoToken) {
		t.Errorf("Revoke(no token) = %v", err)
	}
	if _, err := f.gate.Revoke(ctx, cert.ID, "   ", admin); !errors.Is(err, ledger.ErrReasonRequired) {
		t.Errorf("Revoke(blank reason) = %v", err)
	}
	if _, err := f.gate.Restore(ctx, cert.ID, admin); !errors.Is(err, ledger.ErrNotRevoked) {
		t.Errorf("Restore(not revoked) = %v", err)
	}
	if _, err := f.gate.Revoke(ctx, cert.ID, "wrong site", other); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Revoke(foreign tenant) = %v", err)
	}
	if _, err := f.gate.Revoke(ctx, cert.ID, "wrong site", admin); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := f.gate.Revoke(ctx, cert.ID, "again", admin); !errors.Is(err, ledger.ErrAlreadyRevoked) {
		t.Errorf("Revoke(revoked) = %v", err)
	}

	revs, err := f.svc.History(ctx, cert.ID, admin)
	if err != nil || len(revs) != 1 {
		t.Fatalf("revocation touched the ledger: %v %v", revs, err)
	}
}
