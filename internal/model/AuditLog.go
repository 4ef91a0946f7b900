package model

import "time"

// AuditLog is an append-only record of administrative actions on a
// certificate. IDs are ULIDs so rows sort by time.
type AuditLog struct {
	ID            string    `gorm:"type:char(26);primaryKey" json:"id"`
	CompanyID     string    `gorm:"type:text;not null;index" json:"companyId"`
	CertificateID string    `gorm:"type:text;not null;index" json:"certificateId"`
	Actor         string    `gorm:"type:text;not null" json:"actor"`
	Action        string    `gorm:"type:text;not null" json:"action"`
	Description   string    `gorm:"type:text;not null;default:''" json:"description"`
	Revision      int       `gorm:"type:integer;not null;default:0" json:"revision,omitempty"`
	Timestamp     time.Time `gorm:"type:timestamptz;not null" json:"timestamp"`
}

func (a AuditLog) TableName() string {
	return "audit_logs"
}
