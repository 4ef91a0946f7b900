// Package ledger owns the certificate lifecycle and is the only writer of
// certificate revisions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantract/certledger/internal/audit"
	"github.com/quantract/certledger/internal/constant"
	filestorage "github.com/quantract/certledger/internal/file_storage"
	"github.com/quantract/certledger/internal/metrics"
	"github.com/quantract/certledger/internal/model"
	"github.com/quantract/certledger/internal/util"
	"go.uber.org/zap"
)

type Config struct {
	// MaxAttempts bounds issuance retries on revision conflicts.
	MaxAttempts int
}

type Service struct {
	store    Store
	blobs    filestorage.Store
	renderer Renderer
	branding BrandingSource
	events   audit.Sink
	metrics  *metrics.Metrics
	logger   *zap.SugaredLogger
	cfg      Config

	now       func() time.Time
	newToken  func() (string, error)
	newNumber func(prefix string) (string, error)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTokenGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.newToken = fn }
}

func WithNumberGenerator(fn func(prefix string) (string, error)) Option {
	return func(s *Service) { s.newNumber = fn }
}

func WithEvents(sink audit.Sink) Option {
	return func(s *Service) { s.events = sink }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, blobs filestorage.Store, renderer Renderer, branding BrandingSource, logger *zap.SugaredLogger, cfg Config, opts ...Option) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = constant.DEFAULT_ISSUANCE_ATTEMPTS
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Service{
		store:     store,
		blobs:     blobs,
		renderer:  renderer,
		branding:  branding,
		events:    audit.Discard{},
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newToken:  util.GenerateVerificationToken,
		newNumber: util.GenerateCertificateNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loadOwned returns the certificate when it belongs to the actor's company.
// Foreign certificates are reported as not found.
func (s *Service) loadOwned(ctx context.Context, id string, actor Actor) (*model.Certificate, error) {
	cert, err := s.store.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.CompanyID != actor.CompanyID {
		return nil, ErrNotFound
	}
	return cert, nil
}

func (s *Service) record(action audit.Action, cert *model.Certificate, actor Actor, revision int, description string) {
	s.events.Record(audit.Event{
		Action:        action,
		CompanyID:     cert.CompanyID,
		CertificateID: cert.ID,
		Actor:         actor.UserID,
		Revision:      revision,
		Description:   description,
		At:            s.now().UTC(),
	})
}

func invalidState(cert *model.Certificate, op string) error {
	return fmt.Errorf("%w: cannot %s a %s certificate", ErrInvalidState, op, cert.Status)
}

func issuanceOutcome(err error) string {
	var (
		verr *ValidationError
		rerr *RenderError
	)
	switch {
	case errors.Is(err, ErrConflict):
		return metrics.OutcomeConflict
	case errors.As(err, &verr), errors.Is(err, ErrInvalidState), errors.Is(err, ErrNotFound):
		return metrics.OutcomeInvalid
	case errors.As(err, &rerr):
		return metrics.OutcomeRenderError
	case errors.Is(err, ErrStorageUnavailable):
		return metrics.OutcomeStorage
	}
	return metrics.OutcomeError
}
