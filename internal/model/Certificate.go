package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/document"
	"gorm.io/datatypes"
)

type Certificate struct {
	BaseModel
	CompanyID string                     `gorm:"type:text;not null;index;uniqueIndex:idx_certificates_company_number,priority:1" json:"companyId"`
	Type      document.Type              `gorm:"type:varchar(8);not null" json:"type"`
	Number    string                     `gorm:"type:text;not null;uniqueIndex:idx_certificates_company_number,priority:2" json:"number"`
	Status    constant.CertificateStatus `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`

	InspectorName         string         `gorm:"type:text;not null;default:''" json:"inspectorName"`
	InspectorRegistration string         `gorm:"type:text;not null;default:''" json:"inspectorRegistration"`
	ClientName            string         `gorm:"type:text;not null;default:''" json:"clientName"`
	SiteAddress           string         `gorm:"type:text;not null;default:''" json:"siteAddress"`
	Content               datatypes.JSON `gorm:"type:jsonb" json:"content"`
	Attachments           datatypes.JSON `gorm:"type:jsonb" json:"attachments"`

	VerificationToken         *string    `gorm:"type:text;uniqueIndex" json:"verificationToken,omitempty"`
	VerificationRevokedAt     *time.Time `gorm:"type:timestamptz" json:"verificationRevokedAt,omitempty"`
	VerificationRevokedReason *string    `gorm:"type:text" json:"verificationRevokedReason,omitempty"`

	ParentID *string `gorm:"type:text;index" json:"parentId,omitempty"`
}

func (c Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) HasToken() bool {
	return c.VerificationToken != nil && *c.VerificationToken != ""
}

func (c *Certificate) IsRevoked() bool {
	return c.VerificationRevokedAt != nil
}

func (c *Certificate) RevokedReason() string {
	if c.VerificationRevokedReason == nil {
		return ""
	}
	return *c.VerificationRevokedReason
}

func (c *Certificate) Header() document.Header {
	return document.Header{
		InspectorName:         c.InspectorName,
		InspectorRegistration: c.InspectorRegistration,
		ClientName:            c.ClientName,
		SiteAddress:           c.SiteAddress,
	}
}

// Draft decodes the editable content for readiness checks and snapshotting.
func (c *Certificate) Draft() (document.Draft, error) {
	body, err := document.DecodeContent(c.Type, c.Content)
	if err != nil {
		return document.Draft{}, err
	}

	var attachments []document.Attachment
	if len(c.Attachments) > 0 && string(c.Attachments) != "null" {
		if err := json.Unmarshal(c.Attachments, &attachments); err != nil {
			return document.Draft{}, fmt.Errorf("decode attachments: %w", err)
		}
	}

	return document.Draft{
		Type:        c.Type,
		Header:      c.Header(),
		Body:        body,
		Attachments: attachments,
	}, nil
}
