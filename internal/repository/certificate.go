package repository

import (
	"context"
	"time"

	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/model"
	"gorm.io/gorm"
)

type CertificateRepository struct {
	*baseRepository
}

func (cr CertificateRepository) GetById(ctx context.Context, tx *gorm.DB, id string) (*model.Certificate, error) {
	cr.logger.Debugf("Get certificate by id: %s", id)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var certificate model.Certificate
	if err := db.WithContext(ctx).Model(&model.Certificate{}).Where("id = ?", id).First(&certificate).Error; err != nil {
		return nil, mapError(err)
	}

	return &certificate, nil
}

func (cr CertificateRepository) GetByToken(ctx context.Context, tx *gorm.DB, token string) (*model.Certificate, error) {
	// Token is a bearer credential; never log it.
	cr.logger.Debug("Get certificate by verification token")

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var certificate model.Certificate
	if err := db.WithContext(ctx).Model(&model.Certificate{}).Where("verification_token = ?", token).First(&certificate).Error; err != nil {
		return nil, mapError(err)
	}

	return &certificate, nil
}

func (cr CertificateRepository) Create(ctx context.Context, tx *gorm.DB, c *model.Certificate) error {
	cr.logger.Debugf("Create certificate: %s", c.Number)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return mapError(db.WithContext(ctx).Create(c).Error)
}

// UpdateDraft writes the editable columns while the row is still editable and
// resets its status to draft.
func (cr CertificateRepository) UpdateDraft(ctx context.Context, tx *gorm.DB, c *model.Certificate) error {
	cr.logger.Debugf("Update certificate draft: %s", c.ID)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ? AND status IN ?", c.ID, []constant.CertificateStatus{constant.CertificateStatusDraft, constant.CertificateStatusCompleted}).
		Updates(map[string]any{
			"inspector_name":         c.InspectorName,
			"inspector_registration": c.InspectorRegistration,
			"client_name":            c.ClientName,
			"site_address":           c.SiteAddress,
			"content":                c.Content,
			"attachments":            c.Attachments,
			"status":                 constant.CertificateStatusDraft,
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return cr.guardFailed(ctx, db, c.ID)
	}

	return nil
}

// TransitionStatus moves id from one status to another. Zero rows means the
// row is gone or another writer moved it first.
func (cr CertificateRepository) TransitionStatus(ctx context.Context, tx *gorm.DB, id string, from, to constant.CertificateStatus) error {
	cr.logger.Debugf("Transition certificate %s: %s -> %s", id, from, to)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return cr.guardFailed(ctx, db, id)
	}

	return nil
}

// MarkIssued sets the verification token when none is set yet and flips the
// certificate from completed to issued.
func (cr CertificateRepository) MarkIssued(ctx context.Context, tx *gorm.DB, id, token string) error {
	cr.logger.Debugf("Mark certificate issued: %s", id)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ? AND status = ?", id, constant.CertificateStatusCompleted).
		Updates(map[string]any{
			"verification_token": gorm.Expr("COALESCE(verification_token, ?)", token),
			"status":             constant.CertificateStatusIssued,
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return cr.guardFailed(ctx, db, id)
	}

	return nil
}

func (cr CertificateRepository) SetRevocation(ctx context.Context, tx *gorm.DB, id string, revokedAt *time.Time, reason *string) error {
	cr.logger.Debugf("Set verification revocation of certificate %s: revoked=%t", id, revokedAt != nil)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	res := db.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ? AND verification_token IS NOT NULL", id).
		Updates(map[string]any{
			"verification_revoked_at":     revokedAt,
			"verification_revoked_reason": reason,
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		if err := cr.guardFailed(ctx, db, id); err != ledger.ErrInvalidState {
			return err
		}
		return ledger.ErrNoToken
	}

	return nil
}

// guardFailed tells a missing row apart from a failed status guard.
func (cr CertificateRepository) guardFailed(ctx context.Context, db *gorm.DB, id string) error {
	var count int64
	if err := db.WithContext(ctx).Model(&model.Certificate{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return mapError(err)
	}
	if count == 0 {
		return ledger.ErrNotFound
	}
	return ledger.ErrInvalidState
}
