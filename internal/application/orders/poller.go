package orders

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/domain/orders"
)

// ---------------------------------------------------------------------------
// Poller
// ---------------------------------------------------------------------------

const (
	// DefaultPollInterval is the delay between local-store polls while a
	// background reconciliation job runs.
	DefaultPollInterval = 1200 * time.Millisecond
	// DefaultPollTimeout bounds how long a background job is awaited before
	// giving up and serving whatever the local store has.
	DefaultPollTimeout = 45 * time.Second
)

// Poller waits for a background reconciliation job to land rows in the local
// store. It polls the authoritative local read and accepts once the row count
// plateaus: non-zero and unchanged across two consecutive polls.
type Poller struct {
	reader   orders.LineItemReader
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithPollInterval overrides the delay between polls.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollTimeout overrides the overall deadline.
func WithPollTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewPoller creates a poller over the authoritative local read.
func NewPoller(reader orders.LineItemReader, logger *zap.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		reader:   reader,
		interval: DefaultPollInterval,
		timeout:  DefaultPollTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Await polls until the local row count plateaus or the deadline passes.
// Timing out is not an error: it returns nil items and the caller falls back
// to a plain local read. Context cancellation aborts early with ctx.Err().
func (p *Poller) Await(ctx context.Context) ([]orders.LineItem, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	start := time.Now()
	prev := -1
	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				p.logger.Warn("Background reconciliation did not settle before deadline",
					zap.Duration("waited", time.Since(start)),
					zap.Int("last_count", prev),
				)
				return nil, nil
			}
			return nil, ctx.Err()
		case <-ticker.C:
			items, err := p.reader.FindCurrent(ctx)
			if err != nil {
				// Transient read failures reset the plateau; the next
				// successful poll starts a fresh comparison.
				p.logger.Warn("Local poll failed", zap.Error(err))
				prev = -1
				continue
			}
			n := len(items)
			if n > 0 && n == prev {
				p.logger.Info("Background reconciliation settled",
					zap.Int("items", n),
					zap.Duration("waited", time.Since(start)),
				)
				return items, nil
			}
			prev = n
		}
	}
}
