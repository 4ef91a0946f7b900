package verification

import (
	"context"
	"strings"

	"github.com/quantract/certledger/internal/audit"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/model"
)

const maxReasonLength = 500

func (g *Gate) loadOwned(ctx context.Context, id string, actor ledger.Actor) (*model.Certificate, error) {
	cert, err := g.store.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.CompanyID != actor.CompanyID {
		return nil, ledger.ErrNotFound
	}
	return cert, nil
}

// Revoke stops the public gate from serving a certificate. The ledger is not
// touched; Restore undoes it.
func (g *Gate) Revoke(ctx context.Context, certificateID, reason string, actor ledger.Actor) (*model.Certificate, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ledger.ErrReasonRequired
	}
	if r := []rune(reason); len(r) > maxReasonLength {
		reason = string(r[:maxReasonLength])
	}

	cert, err := g.loadOwned(ctx, certificateID, actor)
	if err != nil {
		return nil, err
	}
	if !cert.HasToken() {
		return nil, ledger.ErrNoToken
	}
	if cert.IsRevoked() {
		return nil, ledger.ErrAlreadyRevoked
	}

	now := g.now().UTC()
	if err := g.store.SetRevocation(ctx, cert.ID, &now, &reason); err != nil {
		return nil, err
	}
	cert.VerificationRevokedAt = &now
	cert.VerificationRevokedReason = &reason

	g.logger.Infow("Certificate verification revoked", "certificateId", cert.ID, "actor", actor.UserID)
	g.events.Record(audit.Event{
		Action:        audit.ActionRevoked,
		CompanyID:     cert.CompanyID,
		CertificateID: cert.ID,
		Actor:         actor.UserID,
		Description:   reason,
		At:            now,
	})
	return cert, nil
}

func (g *Gate) Restore(ctx context.Context, certificateID string, actor ledger.Actor) (*model.Certificate, error) {
	cert, err := g.loadOwned(ctx, certificateID, actor)
	if err != nil {
		return nil, err
	}
	if !cert.IsRevoked() {
		return nil, ledger.ErrNotRevoked
	}

	if err := g.store.SetRevocation(ctx, cert.ID, nil, nil); err != nil {
		return nil, err
	}
	cert.VerificationRevokedAt = nil
	cert.VerificationRevokedReason = nil

	g.logger.Infow("Certificate verification restored", "certificateId", cert.ID, "actor", actor.UserID)
	g.events.Record(audit.Event{
		Action:        audit.ActionRestored,
		CompanyID:     cert.CompanyID,
		CertificateID: cert.ID,
		Actor:         actor.UserID,
		At:            g.now().UTC(),
	})
	return cert, nil
}
