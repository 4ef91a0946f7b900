package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrImmutableRevision = errors.New("certificate revision is immutable")

// CertificateRevision is one immutable entry of a certificate's ledger.
// Content holds the canonical snapshot bytes; the column is json, not jsonb,
// so Postgres keeps the bytes exactly as written.
type CertificateRevision struct {
	ID            string         `gorm:"type:text;primaryKey" json:"id"`
	CertificateID string         `gorm:"type:text;not null;uniqueIndex:idx_certificate_revisions_certificate_revision,priority:1" json:"certificateId"`
	Revision      int            `gorm:"type:integer;not null;check:chk_certificate_revisions_revision_positive,revision > 0;uniqueIndex:idx_certificate_revisions_certificate_revision,priority:2" json:"revision"`
	Content       datatypes.JSON `gorm:"type:json;not null" json:"content"`
	SigningHash   string         `gorm:"type:char(64);not null" json:"signingHash"`
	PdfKey        string         `gorm:"type:text;not null" json:"pdfKey"`
	PdfChecksum   string         `gorm:"type:char(64);not null" json:"pdfChecksum"`
	IssuedAt      time.Time      `gorm:"type:timestamptz;not null" json:"issuedAt"`
	IssuedBy      string         `gorm:"type:text;not null" json:"issuedBy"`
	RegeneratedAt *time.Time     `gorm:"type:timestamptz" json:"regeneratedAt,omitempty"`
	CreatedAt     *time.Time     `gorm:"type:timestamptz;default:CURRENT_TIMESTAMP;not null" json:"-"`
}

func (r CertificateRevision) TableName() string {
	return "certificate_revisions"
}

func (r *CertificateRevision) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return
}

// ImmutableColumns may never change after insert. Only the artifact columns
// (pdf_key, pdf_checksum, regenerated_at) are writable, and only by self-heal.
var ImmutableColumns = []string{"CertificateID", "Revision", "Content", "SigningHash", "IssuedAt", "IssuedBy"}

func (r *CertificateRevision) BeforeUpdate(tx *gorm.DB) (err error) {
	if tx.Statement.Changed(ImmutableColumns...) {
		return ErrImmutableRevision
	}
	return
}

func (r *CertificateRevision) BeforeDelete(tx *gorm.DB) (err error) {
	return ErrImmutableRevision
}
