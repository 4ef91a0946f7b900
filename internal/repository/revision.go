package repository

import (
	"context"
	"time"

	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/model"
	"gorm.io/gorm"
)

// RevisionRepository has no general update or delete: revisions are
// append-only except for the self-heal artifact columns.
type RevisionRepository struct {
	*baseRepository
}

func (rr RevisionRepository) Create(ctx context.Context, tx *gorm.DB, rev *model.CertificateRevision) error {
	rr.logger.Debugf("Create revision %d of certificate %s", rev.Revision, rev.CertificateID)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return mapError(db.WithContext(ctx).Create(rev).Error)
}

func (rr RevisionRepository) LatestNumber(ctx context.Context, tx *gorm.DB, certificateID string) (int, error) {
	rr.logger.Debugf("Get latest revision number of certificate: %s", certificateID)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var latest int
	if err := db.WithContext(ctx).Model(&model.CertificateRevision{}).
		Where("certificate_id = ?", certificateID).
		Select("COALESCE(MAX(revision), 0)").
		Scan(&latest).Error; err != nil {
		return 0, mapError(err)
	}

	return latest, nil
}

func (rr RevisionRepository) Latest(ctx context.Context, tx *gorm.DB, certificateID string) (*model.CertificateRevision, error) {
	rr.logger.Debugf("Get latest revision of certificate: %s", certificateID)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var rev model.CertificateRevision
	if err := db.WithContext(ctx).Model(&model.CertificateRevision{}).
		Where("certificate_id = ?", certificateID).
		Order("revision desc").
		First(&rev).Error; err != nil {
		return nil, mapError(err)
	}

	return &rev, nil
}

func (rr RevisionRepository) Get(ctx context.Context, tx *gorm.DB, certificateID string, revision int) (*model.CertificateRevision, error) {
	rr.logger.Debugf("Get revision %d of certificate: %s", revision, certificateID)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var rev model.CertificateRevision
	if err := db.WithContext(ctx).Model(&model.CertificateRevision{}).
		Where("certificate_id = ? AND revision = ?", certificateID, revision).
		First(&rev).Error; err != nil {
		return nil, mapError(err)
	}

	return &rev, nil
}

func (rr RevisionRepository) List(ctx context.Context, tx *gorm.DB, certificateID string) ([]model.CertificateRevision, error) {
	rr.logger.Debugf("List revisions of certificate: %s", certificateID)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	revs := make([]model.CertificateRevision, 0)
	if err := db.WithContext(ctx).Model(&model.CertificateRevision{}).
		Where("certificate_id = ?", certificateID).
		Order("revision asc").
		Find(&revs).Error; err != nil {
		return revs, mapError(err)
	}

	return revs, nil
}

// UpdateArtifact replaces the PDF columns of a revision while its signing
// hash is still the one the replacement was rendered from.
func (rr RevisionRepository) UpdateArtifact(ctx context.Context, tx *gorm.DB, revisionID, signingHash, pdfKey, pdfChecksum string, regeneratedAt time.Time) error {
	rr.logger.Debugf("Update artifact of revision: %s", revisionID)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.CertificateRevision{}).
		Where("id = ? AND signing_hash = ?", revisionID, signingHash).
		Updates(map[string]any{
			"pdf_key":        pdfKey,
			"pdf_checksum":   pdfChecksum,
			"regenerated_at": regeneratedAt,
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(&model.CertificateRevision{}).Where("id = ?", revisionID).Count(&count).Error; err != nil {
		return mapError(err)
	}
	if count == 0 {
		return ledger.ErrNotFound
	}
	return ledger.ErrImmutableRevision
}
