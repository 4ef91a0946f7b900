package repository

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/quantract/certledger/internal/audit"
	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/model"
	"gorm.io/gorm"
)

type AuditLogRepository struct {
	*baseRepository
}

func (alr AuditLogRepository) Create(ctx context.Context, tx *gorm.DB, log *model.AuditLog) error {
	db := alr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return mapError(db.WithContext(ctx).Create(log).Error)
}

// GetByCertificateId lists the audit trail of one certificate, oldest first.
// ULID ids sort by creation time.
func (alr AuditLogRepository) GetByCertificateId(ctx context.Context, tx *gorm.DB, companyID, certificateID string) ([]model.AuditLog, error) {
	alr.logger.Debugf("Get audit logs by certificate id: %s", certificateID)

	db := alr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	logs := make([]model.AuditLog, 0)
	if err := db.WithContext(ctx).Model(&model.AuditLog{}).Where(model.AuditLog{
		CompanyID:     companyID,
		CertificateID: certificateID,
	}).Order("id asc").Find(&logs).Error; err != nil {
		return logs, mapError(err)
	}

	return logs, nil
}

// Write stores ev as an audit_logs row. It satisfies audit.Writer.
func (alr AuditLogRepository) Write(ctx context.Context, ev audit.Event) error {
	id, err := ulid.New(ulid.Timestamp(ev.At), ulid.DefaultEntropy())
	if err != nil {
		return err
	}

	return alr.Create(ctx, nil, &model.AuditLog{
		ID:            id.String(),
		CompanyID:     ev.CompanyID,
		CertificateID: ev.CertificateID,
		Actor:         ev.Actor,
		Action:        string(ev.Action),
		Description:   ev.Description,
		Revision:      ev.Revision,
		Timestamp:     ev.At,
	})
}
