// Package audit records the non-critical side effects of certificate
// operations: audit log rows and outbound events. Recording never blocks or
// fails the operation that produced the event.
package audit

import "time"

type Action string

const (
	ActionCreated     Action = "certificate.created"
	ActionUpdated     Action = "certificate.updated"
	ActionCompleted   Action = "certificate.completed"
	ActionReopened    Action = "certificate.reopened"
	ActionIssued      Action = "certificate.issued"
	ActionReissued    Action = "certificate.reissued"
	ActionVoided      Action = "certificate.voided"
	ActionRevoked     Action = "certificate.verification_revoked"
	ActionRestored    Action = "certificate.verification_restored"
	ActionRegenerated Action = "certificate.artifact_regenerated"
)

type Event struct {
	Action        Action    `json:"action"`
	CompanyID     string    `json:"companyId"`
	CertificateID string    `json:"certificateId"`
	Actor         string    `json:"actor"`
	Revision      int       `json:"revision,omitempty"`
	Description   string    `json:"description,omitempty"`
	At            time.Time `json:"at"`
}

// Sink accepts events. Implementations must return quickly.
type Sink interface {
	Record(ev Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Record(Event) {}
