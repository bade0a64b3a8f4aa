package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dwikikusuma/farmgate/internal/catalog/domain"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/metrics"
	"github.com/dwikikusuma/farmgate/pkg/notify"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidFilter = errors.New("invalid filter")
	ErrNotFound      = errors.New("not found")
)

const (
	DefaultTimeout = 5 * time.Second

	NoticeCatalogOffline = "catalog_offline"
)

// Listing is what List answers with. Source tells which dataset served it.
type Listing struct {
	Products   []domain.Product
	Pagination domain.Pagination
	Source     Mode
}

// Service is the resilient catalog fetcher. It prefers the remote source and
// answers from the local dataset whenever the remote call fails, tripping a
// breaker after consecutive failures.
type Service struct {
	remote  RemoteSource
	local   LocalSource
	breaker *Breaker
	timeout time.Duration
	group   singleflight.Group

	mu   sync.RWMutex
	seen map[string]domain.Product

	log     *slog.Logger
	metrics *metrics.Metrics
	notices notify.Sink
}

type options struct {
	threshold int
	timeout   time.Duration
	initial   Mode
	log       *slog.Logger
	metrics   *metrics.Metrics
	notices   notify.Sink
}

type Option func(*options)

func WithFailureThreshold(n int) Option {
	return func(o *options) { o.threshold = n }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// StartInFallback skips the remote source from the first request.
func StartInFallback(fallback bool) Option {
	return func(o *options) {
		if fallback {
			o.initial = ModeLocalFallback
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithNotices(s notify.Sink) Option {
	return func(o *options) { o.notices = s }
}

func NewService(remote RemoteSource, local LocalSource, opts ...Option) *Service {
	o := options{
		threshold: DefaultFailureThreshold,
		timeout:   DefaultTimeout,
		initial:   ModeRemote,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}

	s := &Service{
		remote:  remote,
		local:   local,
		breaker: NewBreaker(o.threshold, o.initial),
		timeout: o.timeout,
		seen:    make(map[string]domain.Product),
		log:     logger.OrDefault(o.log),
		metrics: o.metrics,
		notices: notify.OrDiscard(o.notices),
	}

	st := s.breaker.State()
	s.metrics.CatalogBreakerOpen(st.Mode == ModeLocalFallback)
	if st.Mode == ModeLocalFallback {
		s.log.Info("catalog starting in local fallback mode")
	}
	return s
}

// List answers a filtered page of products. Remote failures never surface:
// the request is served from the local dataset instead. Only an invalid
// filter or a cancelled ctx produce an error.
func (s *Service) List(ctx context.Context, f domain.Filter) (Listing, error) {
	if f.InvertedRange() {
		return Listing{}, fmt.Errorf("%w: minPrice %s is above maxPrice %s", ErrInvalidFilter, f.MinPrice, f.MaxPrice)
	}
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}
	f = f.Normalized()

	if !s.breaker.Allow() {
		s.metrics.CatalogRequest(string(ModeLocalFallback), "skipped")
		return s.fromLocal(f), nil
	}

	ch := s.group.DoChan(f.Key(), func() (any, error) {
		return s.fetchRemote(ctx, f)
	})

	select {
	case <-ctx.Done():
		return Listing{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			s.metrics.CatalogRequest(string(ModeLocalFallback), "failure")
			return s.fromLocal(f), nil
		}
		s.metrics.CatalogRequest(string(ModeRemote), "success")
		return res.Val.(Listing), nil
	}
}

// fetchRemote runs once per distinct in-flight filter. It detaches from the
// caller's cancellation so one impatient caller cannot fail the others; the
// request is still bounded by the fetch timeout.
func (s *Service) fetchRemote(ctx context.Context, f domain.Filter) (Listing, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	started := time.Now()
	res, err := s.remote.List(ctx, f)
	if err == nil && res.Products == nil {
		err = errors.New("listing has no products field")
	}
	if err != nil {
		tripped := s.breaker.Failure()
		st := s.breaker.State()
		s.log.Warn("catalog remote fetch failed, serving local data",
			slog.Any("err", err),
			slog.Int("consecutive_failures", st.ConsecutiveFailures),
			slog.Int("threshold", st.Threshold),
			slog.Duration("elapsed", time.Since(started)),
		)
		if tripped {
			s.onTrip()
		}
		return Listing{}, err
	}

	s.breaker.Success()
	s.remember(res.Products)

	products := domain.Apply(res.Products, f)
	var page domain.Pagination
	if res.Pagination != nil {
		page = *res.Pagination
	} else {
		products, page = domain.Paginate(products, f.Page, f.Limit)
	}
	return Listing{Products: products, Pagination: page, Source: ModeRemote}, nil
}

func (s *Service) onTrip() {
	s.log.Info("catalog breaker open, using local data for the rest of the session",
		slog.Int("threshold", s.breaker.State().Threshold),
	)
	s.metrics.CatalogBreakerOpen(true)
	s.notices.Notify(notify.Notice{
		Level:   notify.LevelInfo,
		Code:    NoticeCatalogOffline,
		Message: "Showing offline catalog. Some products and prices may be out of date.",
	})
}

func (s *Service) fromLocal(f domain.Filter) Listing {
	products, page := domain.Paginate(domain.Apply(s.local.Products(), f), f.Page, f.Limit)
	return Listing{Products: products, Pagination: page, Source: ModeLocalFallback}
}

func (s *Service) remember(products []domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		if p.ID != "" {
			s.seen[p.ID] = p.Clone()
		}
	}
}

// Product resolves a product seen in a remote listing, then the local
// dataset.
func (s *Service) Product(ctx context.Context, id string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}

	s.mu.RLock()
	p, ok := s.seen[id]
	s.mu.RUnlock()
	if ok {
		return p.Clone(), nil
	}

	for _, p := range s.local.Products() {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return domain.Product{}, fmt.Errorf("product %q: %w", id, ErrNotFound)
}

// Facets merges the local dataset with everything seen remotely.
func (s *Service) Facets() domain.Facets {
	s.mu.RLock()
	seen := make([]domain.Product, 0, len(s.seen))
	for _, p := range s.seen {
		seen = append(seen, p)
	}
	s.mu.RUnlock()

	return domain.CollectFacets(s.local.Products(), seen)
}

func (s *Service) State() BreakerState {
	return s.breaker.State()
}
