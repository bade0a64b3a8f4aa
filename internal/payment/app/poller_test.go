package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dwikikusuma/farmgate/internal/payment/domain"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedQuerier struct {
	mu      sync.Mutex
	script  []domain.Status
	errs    map[int]error
	calls   int
	onQuery func(call int)
}

func (q *scriptedQuerier) Status(_ context.Context, _ string) (domain.Status, error) {
	q.mu.Lock()
	q.calls++
	call := q.calls
	hook := q.onQuery
	q.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err, ok := q.errs[call]; ok {
		return "", err
	}
	if len(q.script) == 0 {
		return domain.StatusPending, nil
	}
	idx := call - 1
	if idx >= len(q.script) {
		idx = len(q.script) - 1
	}
	return q.script[idx], nil
}

func (q *scriptedQuerier) Calls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

// recordingSleep counts the delays without waiting for them.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newTestPoller(q StatusQuerier, rs *recordingSleep, opts ...PollerOption) *Poller {
	opts = append([]PollerOption{WithPollLogger(logger.Discard())}, opts...)
	p := NewPoller(q, opts...)
	p.sleep = rs.sleep
	return p
}

func TestAwaitCompletesOnThirdQuery(t *testing.T) {
	q := &scriptedQuerier{script: []domain.Status{domain.StatusPending, domain.StatusPending, domain.StatusCompleted}}
	rs := &recordingSleep{}

	out, err := newTestPoller(q, rs).Await(context.Background(), "ws_CO_1", Interval(time.Second))
	require.NoError(t, err)
	assert.Equal(t, domain.Outcome{Success: true, Status: domain.StatusCompleted}, out)
	assert.Equal(t, 3, q.Calls())
	assert.Equal(t, []time.Duration{time.Second, time.Second}, rs.delays)
}

func TestAwaitTimesOutAfterMaxAttempts(t *testing.T) {
	q := &scriptedQuerier{}
	rs := &recordingSleep{}

	out, err := newTestPoller(q, rs).Await(context.Background(), "ws_CO_2", MaxAttempts(3))
	require.NoError(t, err)
	assert.Equal(t, domain.Outcome{Success: false, Status: domain.StatusTimeout}, out)
	assert.Equal(t, 3, q.Calls())
	assert.Len(t, rs.delays, 2, "no delay after the last query")
}

func TestAwaitStopsOnFailureStatuses(t *testing.T) {
	for _, st := range []domain.Status{domain.StatusFailed, domain.StatusCancelled} {
		t.Run(string(st), func(t *testing.T) {
			q := &scriptedQuerier{script: []domain.Status{domain.StatusPending, st, domain.StatusCompleted}}

			out, err := newTestPoller(q, &recordingSleep{}).Await(context.Background(), "ws_CO_3")
			require.NoError(t, err)
			assert.Equal(t, domain.Outcome{Success: false, Status: st}, out)
			assert.Equal(t, 2, q.Calls())
		})
	}
}

func TestAwaitToleratesQueryErrors(t *testing.T) {
	q := &scriptedQuerier{
		script: []domain.Status{domain.StatusPending, domain.StatusPending, domain.StatusCompleted},
		errs:   map[int]error{1: errors.New("connection reset"), 2: errors.New("502 bad gateway")},
	}
	m := metrics.New()

	out, err := newTestPoller(q, &recordingSleep{}, WithPollMetrics(m)).Await(context.Background(), "ws_CO_4")
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 3, q.Calls())
}

func TestAwaitErrorsOnlyStillTimesOut(t *testing.T) {
	boom := errors.New("down")
	q := &scriptedQuerier{errs: map[int]error{1: boom, 2: boom, 3: boom, 4: boom}}

	out, err := newTestPoller(q, &recordingSleep{}).Await(context.Background(), "ws_CO_5", MaxAttempts(4))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTimeout, out.Status)
	assert.Equal(t, 4, q.Calls())
}

func TestAwaitCancelledBetweenQueries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := &scriptedQuerier{onQuery: func(call int) {
		if call == 2 {
			cancel()
		}
	}}

	out, err := newTestPoller(q, &recordingSleep{}).Await(ctx, "ws_CO_6", MaxAttempts(10))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.Outcome{Success: false, Status: domain.StatusPending}, out)
	assert.Equal(t, 2, q.Calls())
}

func TestAwaitAlreadyCancelledNeverQueries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := &scriptedQuerier{}

	_, err := newTestPoller(q, &recordingSleep{}).Await(ctx, "ws_CO_7")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, q.Calls())
}

func TestAwaitUsesPollerDefaults(t *testing.T) {
	q := &scriptedQuerier{}
	rs := &recordingSleep{}

	out, err := newTestPoller(q, rs, WithDefaults(2, 5*time.Millisecond)).Await(context.Background(), "ws_CO_8")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTimeout, out.Status)
	assert.Equal(t, 2, q.Calls())
	assert.Equal(t, []time.Duration{5 * time.Millisecond}, rs.delays)
}

func TestSleepOrDone(t *testing.T) {
	require.NoError(t, SleepOrDone(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	require.ErrorIs(t, SleepOrDone(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwaitRealClock(t *testing.T) {
	q := &scriptedQuerier{script: []domain.Status{domain.StatusPending, domain.StatusCompleted}}
	p := NewPoller(q, WithPollLogger(logger.Discard()))

	out, err := p.Await(context.Background(), "ws_CO_9", Interval(10*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, out.Success)
}
