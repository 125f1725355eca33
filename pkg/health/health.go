// Package health serves /livez and /readyz.
//
// Registered checks run in the background, each in its own goroutine. A check
// flips to unhealthy after FailureThreshold consecutive failures and back
// after SuccessThreshold consecutive passes, so one slow query does not take
// the instance out of rotation.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Probe selects the endpoint a check contributes to.
type Probe uint8

const (
	Liveness Probe = iota
	Readiness
)

func (p Probe) String() string {
	if p == Readiness {
		return "readiness"
	}
	return "liveness"
}

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Check describes one registered check.
type Check struct {
	Name    string
	Probe   Probe
	Timeout time.Duration
	Func    CheckFunc
	// FailureThreshold defaults to 3, SuccessThreshold to 1.
	FailureThreshold int
	SuccessThreshold int
}

// check is a registered Check plus its runtime state. fails and oks are
// touched only by the goroutine calling run; healthy and lastErr are read
// by handlers.
type check struct {
	Check
	lg *zap.Logger

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	fails int
	oks   int
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	err := c.Func(ctx)
	if err != nil {
		msg := err.Error()
		c.lastErr.Store(&msg)
		c.oks = 0
		c.fails++
		if c.fails >= c.FailureThreshold && c.healthy.Swap(false) {
			c.lg.Warn("Health check failing", zap.Int("failures", c.fails), zap.Error(err))
		}
		return
	}
	c.lastErr.Store(nil)
	c.fails = 0
	c.oks++
	if c.oks >= c.SuccessThreshold && !c.healthy.Swap(true) {
		c.lg.Info("Health check recovered")
	}
}

// failure returns the reason the check is unhealthy, or "" when healthy.
func (c *check) failure() string {
	if c.healthy.Load() {
		return ""
	}
	if msg := c.lastErr.Load(); msg != nil {
		return *msg
	}
	return "check is unhealthy"
}

// Options configures a Health.
type Options struct {
	Logger        *zap.Logger
	MeterProvider metric.MeterProvider
}

// Health tracks liveness and readiness of the service.
type Health struct {
	ready atomic.Bool
	lg    *zap.Logger

	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
}

// New creates a Health. The service starts not ready; call SetReady once
// initialization is done. Check state is exported as the health.check.up
// gauge.
func New(opts Options) (*Health, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = noop.NewMeterProvider()
	}
	h := &Health{lg: opts.Logger}

	meter := opts.MeterProvider.Meter("github.com/xenking/kart-storefront/pkg/health")
	if _, err := meter.Int64ObservableGauge("health.check.up",
		metric.WithDescription("1 when the check is passing, 0 otherwise"),
		metric.WithInt64Callback(h.observe),
	); err != nil {
		return nil, errors.Wrap(err, "create health gauge")
	}
	return h, nil
}

func (h *Health) observe(_ context.Context, o metric.Int64Observer) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.checks {
		var up int64
		if c.healthy.Load() {
			up = 1
		}
		o.Observe(up, metric.WithAttributes(
			attribute.String("check", c.Name),
			attribute.String("probe", c.Probe.String()),
		))
	}
	return nil
}

// Register adds a check. Checks start healthy. Register must be called
// before Start.
func (h *Health) Register(c Check) {
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	s := &check{
		Check: c,
		lg:    h.lg.With(zap.String("check", c.Name), zap.Stringer("probe", c.Probe)),
	}
	s.healthy.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, s)
}

// Start runs every registered check now and then once per interval until
// Stop is called or ctx ends.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := slices.Clone(h.checks)
	h.mu.Unlock()

	for _, c := range checks {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				c.run(ctx)
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	}
}

// Stop cancels the background checks. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady marks the service ready or draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check is passing.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(h.failures(Readiness)) == 0
}

// failures maps the names of unhealthy checks of probe p to their last error.
func (h *Health) failures(p Probe) map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]string)
	for _, c := range h.checks {
		if c.Probe != p {
			continue
		}
		if msg := c.failure(); msg != "" {
			out[c.Name] = msg
		}
	}
	return out
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(Liveness))
}

// ReadyEndpoint serves /readyz. A service not marked ready reports the
// pseudo check "_readiness".
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(Readiness)
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

// writeStatus writes {"status":"ok"} or 503 with
// {"status":"unhealthy","checks":{name: error}}.
func writeStatus(w http.ResponseWriter, failures map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := http.StatusOK
	e.ObjStart()
	if len(failures) == 0 {
		e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
	} else {
		status = http.StatusServiceUnavailable
		e.Field("status", func(e *jx.Encoder) { e.Str("unhealthy") })
		e.Field("checks", func(e *jx.Encoder) {
			e.ObjStart()
			names := make([]string, 0, len(failures))
			for name := range failures {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				e.Field(name, func(e *jx.Encoder) { e.Str(failures[name]) })
			}
			e.ObjEnd()
		})
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
