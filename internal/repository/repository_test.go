package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	return NewRepository(db, zap.NewNop().Sugar()), mock
}

func TestMapError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, ledger.ErrNotFound},
		{"wrapped record not found", fmt.Errorf("query: %w", gorm.ErrRecordNotFound), ledger.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "idx_certificate_revisions_certificate_revision"}, ledger.ErrConflict},
		{"translated duplicate", gorm.ErrDuplicatedKey, ledger.ErrConflict},
		{"other pg error", &pgconn.PgError{Code: "23503"}, nil},
		{"passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.in)
			switch {
			case tt.in == nil:
				if got != nil {
					t.Fatalf("mapError(nil) = %v", got)
				}
			case tt.want == nil:
				if errors.Is(got, ledger.ErrConflict) || errors.Is(got, ledger.ErrNotFound) {
					t.Fatalf("mapError(%v) = %v, want passthrough", tt.in, got)
				}
			case !errors.Is(got, tt.want):
				t.Fatalf("mapError(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetCertificateNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "certificates" WHERE id = \$1`).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Certificate.GetById(context.Background(), nil, "missing")
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("GetById error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLatestRevisionNumber(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(revision\), 0\) FROM "certificate_revisions" WHERE certificate_id = \$1`).
		WithArgs("cert-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))

	n, err := repo.Revision.LatestNumber(context.Background(), nil, "cert-1")
	if err != nil {
		t.Fatalf("LatestNumber: %v", err)
	}
	if n != 3 {
		t.Fatalf("LatestNumber = %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTransitionStatusGuard(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  error
	}{
		{"moved by another writer", 1, ledger.ErrInvalidState},
		{"deleted", 0, ledger.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)

			mock.ExpectExec(`UPDATE "certificates" SET .* WHERE id = \$\d+ AND status = \$\d+`).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`SELECT count\(\*\) FROM "certificates" WHERE id = \$1`).
				WithArgs("cert-1").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))

			err := repo.Certificate.TransitionStatus(context.Background(), nil, "cert-1", constant.CertificateStatusCompleted, constant.CertificateStatusIssued)
			if !errors.Is(err, tt.want) {
				t.Fatalf("TransitionStatus error = %v, want %v", err, tt.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestUpdateArtifactRequiresUnchangedSigningHash(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "certificate_revisions" SET .* WHERE id = \$\d+ AND signing_hash = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "certificate_revisions" WHERE id = \$1`).
		WithArgs("rev-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := repo.Revision.UpdateArtifact(context.Background(), nil, "rev-1", "stale-hash", "certs/c/revisions/1.pdf", "abc", now)
	if !errors.Is(err, ledger.ErrImmutableRevision) {
		t.Fatalf("UpdateArtifact error = %v, want ErrImmutableRevision", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateArtifactWritesOnlyArtifactColumns(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "certificate_revisions" SET "pdf_checksum"=\$1,"pdf_key"=\$2,"regenerated_at"=\$3 WHERE id = \$4 AND signing_hash = \$5`).
		WithArgs("abc", "certs/c/revisions/1.pdf", now, "rev-1", "hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Revision.UpdateArtifact(context.Background(), nil, "rev-1", "hash", "certs/c/revisions/1.pdf", "abc", now); err != nil {
		t.Fatalf("UpdateArtifact: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRevisionHooksRejectMutation(t *testing.T) {
	repo, mock := newMockRepository(t)
	rev := &model.CertificateRevision{ID: "rev-1"}

	err := repo.DB.Model(rev).Update("content", datatypes.JSON(`{"tampered":true}`)).Error
	if !errors.Is(err, model.ErrImmutableRevision) {
		t.Fatalf("Update(content) error = %v, want ErrImmutableRevision", err)
	}

	err = repo.DB.Model(rev).Updates(map[string]any{"signing_hash": "x"}).Error
	if !errors.Is(err, model.ErrImmutableRevision) {
		t.Fatalf("Updates(signing_hash) error = %v, want ErrImmutableRevision", err)
	}

	if err := repo.DB.Delete(rev).Error; !errors.Is(err, model.ErrImmutableRevision) {
		t.Fatalf("Delete error = %v, want ErrImmutableRevision", err)
	}

	// Hooks fail before any statement reaches the database.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCommitIssuanceRollsBackOnRevisionConflict(t *testing.T) {
	repo, mock := newMockRepository(t)
	store := NewLedgerStore(repo)

	rev := &model.CertificateRevision{
		ID:            "rev-1",
		CertificateID: "cert-1",
		Revision:      1,
		Content:       datatypes.JSON(`{}`),
		SigningHash:   "h",
		PdfKey:        "k",
		PdfChecksum:   "c",
		IssuedAt:      time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		IssuedBy:      "user-1",
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "certificate_revisions"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_certificate_revisions_certificate_revision"})
	mock.ExpectRollback()

	err := store.CommitIssuance(context.Background(), rev, "token", func(context.Context) error {
		t.Error("publish ran for a losing issuer")
		return nil
	})
	if !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("CommitIssuance error = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCommitIssuancePublishesBeforeCommit(t *testing.T) {
	uploadFailed := fmt.Errorf("%w: bucket down", ledger.ErrStorageUnavailable)

	tests := []struct {
		name    string
		publish error
	}{
		{"upload succeeds", nil},
		{"upload fails", uploadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			store := NewLedgerStore(repo)
			rev := &model.CertificateRevision{
				ID:            "rev-1",
				CertificateID: "cert-1",
				Revision:      1,
				Content:       datatypes.JSON(`{}`),
				SigningHash:   "h",
				PdfKey:        "k",
				PdfChecksum:   "c",
				IssuedAt:      time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
				IssuedBy:      "user-1",
			}

			mock.ExpectBegin()
			mock.ExpectQuery(`INSERT INTO "certificate_revisions"`).
				WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)))
			mock.ExpectExec(`UPDATE "certificates" SET .* WHERE id = \$\d+ AND status = \$\d+`).
				WillReturnResult(sqlmock.NewResult(0, 1))
			if tt.publish == nil {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			published := false
			err := store.CommitIssuance(context.Background(), rev, "token", func(context.Context) error {
				published = true
				return tt.publish
			})
			if !errors.Is(err, tt.publish) {
				t.Fatalf("CommitIssuance error = %v, want %v", err, tt.publish)
			}
			if !published {
				t.Fatal("publish did not run")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestAuditLogsByCertificate(t *testing.T) {
	repo, mock := newMockRepository(t)
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE "audit_logs"."company_id" = \$1 AND "audit_logs"."certificate_id" = \$2 ORDER BY id asc`).
		WithArgs("company-1", "cert-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "certificate_id", "actor", "action", "description", "revision", "timestamp"}).
			AddRow("01JNGZ5Q8Y0000000000000000", "company-1", "cert-1", "user-1", "issued", "signing hash h", 1, at).
			AddRow("01JNGZ5Q8Y0000000000000001", "company-1", "cert-1", "user-2", "revoked", "client dispute", 0, at))

	logs, err := repo.AuditLog.GetByCertificateId(context.Background(), nil, "company-1", "cert-1")
	if err != nil {
		t.Fatalf("GetByCertificateId: %v", err)
	}
	if len(logs) != 2 || logs[0].Action != "issued" || logs[1].Description != "client dispute" {
		t.Fatalf("GetByCertificateId = %+v", logs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
