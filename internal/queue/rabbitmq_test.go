package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/quantract/certledger/internal/audit"
	amqp "github.com/rabbitmq/amqp091-go"
)

func TestMessage(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	ev := audit.Event{
		Action:        audit.ActionIssued,
		CompanyID:     "company-1",
		CertificateID: "cert-1",
		Actor:         "user-1",
		Revision:      2,
		At:            at,
	}

	msg, err := Message(ev)
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if msg.DeliveryMode != amqp.Persistent {
		t.Errorf("DeliveryMode = %d, want persistent", msg.DeliveryMode)
	}
	if msg.Type != "certificate.issued" || msg.ContentType != "application/json" {
		t.Errorf("Type = %q, ContentType = %q", msg.Type, msg.ContentType)
	}
	if len(msg.MessageId) != 26 {
		t.Errorf("MessageId = %q, want a ULID", msg.MessageId)
	}
	if !msg.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v", msg.Timestamp)
	}

	var got audit.Event
	if err := json.Unmarshal(msg.Body, &got); err != nil {
		t.Fatalf("Unmarshal body: %v", err)
	}
	if got != ev {
		t.Errorf("body = %+v, want %+v", got, ev)
	}
}
