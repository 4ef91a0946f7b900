package audit

import (
	"context"
	"sync"
	"time"

	"github.com/quantract/certledger/internal/metrics"
	"go.uber.org/zap"
)

// Writer delivers one event to a destination such as the audit_logs table or
// the message broker.
type Writer interface {
	Write(ctx context.Context, ev Event) error
}

type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Recorder fans events out to its writers on a bounded worker pool. Record
// never blocks: when the queue is full the event is dropped and counted.
type Recorder struct {
	writers []Writer
	cfg     Config
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	wg     sync.WaitGroup
}

func NewRecorder(cfg Config, logger *zap.SugaredLogger, m *metrics.Metrics, writers ...Writer) *Recorder {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	r := &Recorder{
		writers: writers,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		queue:   make(chan Event, cfg.QueueSize),
	}

	for i := range cfg.Workers {
		r.wg.Add(1)
		go r.work(i)
	}
	return r
}

func (r *Recorder) Record(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warnw("Audit recorder closed, dropping event", "action", ev.Action, "certificateId", ev.CertificateID)
		r.metrics.AuditDropped()
		return
	}

	select {
	case r.queue <- ev:
	default:
		r.logger.Warnw("Audit queue full, dropping event", "action", ev.Action, "certificateId", ev.CertificateID)
		r.metrics.AuditDropped()
	}
}

func (r *Recorder) work(id int) {
	defer r.wg.Done()

	for ev := range r.queue {
		for _, w := range r.writers {
			ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
			if err := w.Write(ctx, ev); err != nil {
				r.logger.Warnw("Audit write failed", "worker", id, "action", ev.Action, "certificateId", ev.CertificateID, "error", err)
			}
			cancel()
		}
	}
}

// Close stops accepting events and waits for queued ones to drain, or for ctx
// to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
