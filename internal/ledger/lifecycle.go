package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quantract/certledger/internal/audit"
	"github.com/quantract/certledger/internal/constant"
	"github.com/quantract/certledger/internal/document"
	"github.com/quantract/certledger/internal/model"
	"github.com/quantract/certledger/pkg/canonical"
	"gorm.io/datatypes"
)

const numberAttempts = 5

// DraftInput is the editable part of a certificate.
type DraftInput struct {
	Type        document.Type
	Header      document.Header
	Content     json.RawMessage
	Attachments []document.Attachment
}

// encodeContent decodes raw into the type's schema and returns its canonical
// bytes, so stored drafts are always in normal form.
func encodeContent(t document.Type, raw json.RawMessage) (datatypes.JSON, error) {
	body, err := document.DecodeContent(t, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return datatypes.JSON(canonical.Marshal(body.Canonical())), nil
}

func encodeAttachments(list []document.Attachment) (datatypes.JSON, error) {
	if len(list) == 0 {
		return datatypes.JSON("[]"), nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return datatypes.JSON(b), nil
}

func applyInput(cert *model.Certificate, in DraftInput) error {
	content, err := encodeContent(cert.Type, in.Content)
	if err != nil {
		return err
	}
	attachments, err := encodeAttachments(in.Attachments)
	if err != nil {
		return err
	}

	cert.InspectorName = in.Header.InspectorName
	cert.InspectorRegistration = in.Header.InspectorRegistration
	cert.ClientName = in.Header.ClientName
	cert.SiteAddress = in.Header.SiteAddress
	cert.Content = content
	cert.Attachments = attachments
	return nil
}

// insertWithNumber assigns a fresh certificate number and inserts cert,
// drawing a new number when the company already uses the one drawn.
func (s *Service) insertWithNumber(ctx context.Context, cert *model.Certificate, insert func(*model.Certificate) error) error {
	for attempt := 1; ; attempt++ {
		number, err := s.newNumber(string(cert.Type))
		if err != nil {
			return fmt.Errorf("generate certificate number: %w", err)
		}
		cert.Number = number

		err = insert(cert)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) || attempt == numberAttempts {
			return err
		}
		s.logger.Warnw("Certificate number collision, drawing another", "number", number, "attempt", attempt)
	}
}

func (s *Service) CreateDraft(ctx context.Context, actor Actor, in DraftInput) (*model.Certificate, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, document.ErrUnknownType)
	}

	cert := &model.Certificate{
		CompanyID: actor.CompanyID,
		Type:      in.Type,
		Status:    constant.CertificateStatusDraft,
	}
	if err := applyInput(cert, in); err != nil {
		return nil, err
	}

	err := s.insertWithNumber(ctx, cert, func(c *model.Certificate) error {
		c.ID = ""
		return s.store.CreateCertificate(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Certificate draft created", "certificateId", cert.ID, "number", cert.Number)
	s.record(audit.ActionCreated, cert, actor, 0, cert.Number)
	return cert, nil
}

// UpdateDraft replaces the editable content. Editing a completed certificate
// sends it back to draft, so it must pass completion again.
func (s *Service) UpdateDraft(ctx context.Context, id string, actor Actor, in DraftInput) (*model.Certificate, error) {
	cert, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !cert.Status.Editable() {
		return nil, invalidState(cert, "edit")
	}
	if in.Type != "" && in.Type != cert.Type {
		return nil, fmt.Errorf("%w: type cannot change from %s to %s", ErrInvalidContent, cert.Type, in.Type)
	}

	if err := applyInput(cert, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateDraft(ctx, cert); err != nil {
		return nil, err
	}
	cert.Status = constant.CertificateStatusDraft

	s.record(audit.ActionUpdated, cert, actor, 0, "")
	return cert, nil
}

// Readiness reports what still blocks completion of a certificate.
func (s *Service) Readiness(ctx context.Context, id string, actor Actor) (document.Readiness, error) {
	cert, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return document.Readiness{}, err
	}
	draft, err := cert.Draft()
	if err != nil {
		// Reported as not ready; the cause is logged.
		_ = s.undecodable(cert, err)
		return document.Readiness{Missing: []string{"body"}}, nil
	}
	return document.CheckReadiness(draft), nil
}

func (s *Service) Complete(ctx context.Context, id string, actor Actor) (*model.Certificate, error) {
	cert, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if cert.Status != constant.CertificateStatusDraft {
		return nil, invalidState(cert, "complete")
	}

	draft, err := cert.Draft()
	if err != nil {
		return nil, s.undecodable(cert, err)
	}
	if r := document.CheckReadiness(draft); !r.OK {
		return nil, &ValidationError{Missing: r.Missing}
	}

	return s.transition(ctx, cert, actor, constant.CertificateStatusCompleted, audit.ActionCompleted)
}

func (s *Service) Reopen(ctx context.Context, id string, actor Actor) (*model.Certificate, error) {
	cert, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if cert.Status != constant.CertificateStatusCompleted {
		return nil, invalidState(cert, "reopen")
	}
	return s.transition(ctx, cert, actor, constant.CertificateStatusDraft, audit.ActionReopened)
}

// Void withdraws an issued certificate for good. Its ledger and token stay;
// the public gate stops resolving it.
func (s *Service) Void(ctx context.Context, id string, actor Actor) (*model.Certificate, error) {
	cert, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if cert.Status != constant.CertificateStatusIssued {
		return nil, invalidState(cert, "void")
	}
	return s.transition(ctx, cert, actor, constant.CertificateStatusVoid, audit.ActionVoided)
}

func (s *Service) transition(ctx context.Context, cert *model.Certificate, actor Actor, to constant.CertificateStatus, action audit.Action) (*model.Certificate, error) {
	from := cert.Status
	if err := s.store.TransitionStatus(ctx, cert.ID, from, to); err != nil {
		return nil, err
	}
	cert.Status = to

	s.logger.Infow("Certificate status changed", "certificateId", cert.ID, "from", from, "to", to)
	s.record(action, cert, actor, 0, string(from)+" -> "+string(to))
	return cert, nil
}

// Reissue supersedes an issued certificate and opens a draft successor with
// the same content. The original keeps its token and revisions; the successor
// gets its own on its first issuance.
func (s *Service) Reissue(ctx context.Context, id string, actor Actor) (*model.Certificate, error) {
	original, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if original.Status != constant.CertificateStatusIssued {
		return nil, invalidState(original, "reissue")
	}

	parentID := original.ID
	successor := &model.Certificate{
		CompanyID:             original.CompanyID,
		Type:                  original.Type,
		Status:                constant.CertificateStatusDraft,
		InspectorName:         original.InspectorName,
		InspectorRegistration: original.InspectorRegistration,
		ClientName:            original.ClientName,
		SiteAddress:           original.SiteAddress,
		Content:               append(datatypes.JSON(nil), original.Content...),
		Attachments:           append(datatypes.JSON(nil), original.Attachments...),
		ParentID:              &parentID,
	}

	err = s.insertWithNumber(ctx, successor, func(c *model.Certificate) error {
		c.ID = ""
		return s.store.CommitReissue(ctx, original.ID, c)
	})
	if err != nil {
		return nil, err
	}

	original.Status = constant.CertificateStatusSuperseded
	s.logger.Infow("Certificate reissued", "certificateId", original.ID, "successorId", successor.ID)
	s.record(audit.ActionReissued, original, actor, 0, "successor "+successor.ID)
	return successor, nil
}

func (s *Service) Get(ctx context.Context, id string, actor Actor) (*model.Certificate, error) {
	return s.loadOwned(ctx, id, actor)
}

// History lists every revision of a certificate, oldest first.
func (s *Service) History(ctx context.Context, id string, actor Actor) ([]model.CertificateRevision, error) {
	cert, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.store.ListRevisions(ctx, cert.ID)
}

func (s *Service) Revision(ctx context.Context, id string, revision int, actor Actor) (*model.CertificateRevision, error) {
	cert, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if revision <= 0 {
		return nil, ErrNotFound
	}
	return s.store.GetRevision(ctx, cert.ID, revision)
}
