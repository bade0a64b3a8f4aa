package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dwikikusuma/farmgate/internal/payment/domain"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/metrics"
)

const (
	DefaultMaxAttempts = 30
	DefaultInterval    = 2 * time.Second
)

// Poller confirms a payment attempt by querying its status until it settles.
//
// Queries run strictly one after another with Interval between them. A query
// that errors is logged and counted as inconclusive; only a terminal status,
// exhaustion of the attempts or cancellation of ctx ends the wait.
type Poller struct {
	querier     StatusQuerier
	maxAttempts int
	interval    time.Duration
	log         *slog.Logger
	metrics     *metrics.Metrics
	sleep       func(ctx context.Context, d time.Duration) error
}

type PollerOption func(*Poller)

// WithPollLogger sets the logger used for inconclusive queries.
func WithPollLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) { p.log = logger.OrDefault(l) }
}

// WithPollMetrics records one sample per query.
func WithPollMetrics(m *metrics.Metrics) PollerOption {
	return func(p *Poller) { p.metrics = m }
}

// WithDefaults replaces the attempt count and interval used when Await is
// called without overrides. Non-positive values keep the built-in defaults.
func WithDefaults(maxAttempts int, interval time.Duration) PollerOption {
	return func(p *Poller) {
		if maxAttempts > 0 {
			p.maxAttempts = maxAttempts
		}
		if interval > 0 {
			p.interval = interval
		}
	}
}

// NewPoller returns a Poller with 30 attempts 2s apart unless overridden.
func NewPoller(q StatusQuerier, opts ...PollerOption) *Poller {
	p := &Poller{
		querier:     q,
		maxAttempts: DefaultMaxAttempts,
		interval:    DefaultInterval,
		log:         slog.Default(),
		sleep:       SleepOrDone,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type awaitConfig struct {
	maxAttempts int
	interval    time.Duration
}

// AwaitOption overrides the poller defaults for one Await call.
type AwaitOption func(*awaitConfig)

// MaxAttempts bounds the number of status queries.
func MaxAttempts(n int) AwaitOption {
	return func(c *awaitConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// Interval sets the delay between two queries.
func Interval(d time.Duration) AwaitOption {
	return func(c *awaitConfig) {
		if d >= 0 {
			c.interval = d
		}
	}
}

// Await polls until the attempt reaches a terminal status or the attempts run
// out.
//
// COMPLETED returns {true, COMPLETED}. FAILED and CANCELLED return
// {false, <status>} at once. Exhausting the attempts returns
// {false, TIMEOUT}. There is no delay after the last query. If ctx is
// cancelled the wait stops and Await returns {false, PENDING} with ctx.Err().
func (p *Poller) Await(ctx context.Context, attemptID string, opts ...AwaitOption) (domain.Outcome, error) {
	cfg := awaitConfig{maxAttempts: p.maxAttempts, interval: p.interval}
	for _, opt := range opts {
		opt(&cfg)
	}
	pending := domain.Outcome{Success: false, Status: domain.StatusPending}

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return pending, err
		}

		st, err := p.querier.Status(ctx, attemptID)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return pending, ctxErr
			}
			p.metrics.PaymentPoll("error")
			p.log.Warn("payment status query failed",
				slog.String("attempt_id", attemptID),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", cfg.maxAttempts),
				slog.Any("err", err),
			)
		case st == domain.StatusCompleted:
			p.metrics.PaymentPoll(string(st))
			return domain.Outcome{Success: true, Status: domain.StatusCompleted}, nil
		case st.IsTerminal():
			p.metrics.PaymentPoll(string(st))
			return domain.Outcome{Success: false, Status: st}, nil
		default:
			p.metrics.PaymentPoll(string(domain.StatusPending))
		}

		if attempt < cfg.maxAttempts {
			if err := p.sleep(ctx, cfg.interval); err != nil {
				return pending, err
			}
		}
	}

	p.log.Info("payment confirmation timed out",
		slog.String("attempt_id", attemptID),
		slog.Int("max_attempts", cfg.maxAttempts),
	)
	return domain.Outcome{Success: false, Status: domain.StatusTimeout}, nil
}

// SleepOrDone blocks for d or until ctx is done, whichever comes first.
func SleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
