package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// --- Helpers ---

func passing() CheckFunc {
	return func(context.Context) error { return nil }
}

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func newHealth(t *testing.T) *Health {
	t.Helper()
	h, err := New(Options{})
	require.NoError(t, err)
	return h
}

type statusBody struct {
	Status string
	Checks map[string]string
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) statusBody {
	t.Helper()
	var body statusBody
	d := jx.DecodeBytes(w.Body.Bytes())
	require.NoError(t, d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "status":
			s, err := d.Str()
			body.Status = s
			return err
		case "checks":
			body.Checks = map[string]string{}
			return d.ObjBytes(func(d *jx.Decoder, name []byte) error {
				s, err := d.Str()
				body.Checks[string(name)] = s
				return err
			})
		default:
			return d.Skip()
		}
	}))
	return body
}

func probe(t *testing.T, fn http.HandlerFunc) (int, statusBody) {
	t.Helper()
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	return w.Code, decodeStatus(t, w)
}

func runTimes(h *Health, name string, n int) {
	for _, c := range h.checks {
		if c.Name == name {
			for range n {
				c.run(context.Background())
			}
		}
	}
}

// --- Tests ---

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := newHealth(t)
	h.Register(Check{Name: "a", Func: passing()})
	h.Register(Check{Name: "b", Func: passing()})
	runTimes(h, "a", 1)

	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)
}

func TestLiveEndpoint_FailingCheck(t *testing.T) {
	h := newHealth(t)
	h.Register(Check{Name: "db", Func: failing("connection refused")})
	runTimes(h, "db", 3)

	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]string{"db": "connection refused"}, body.Checks)
}

func TestLiveEndpoint_FailureBelowThreshold(t *testing.T) {
	h := newHealth(t)
	h.Register(Check{Name: "flaky", Func: failing("temporary")})
	runTimes(h, "flaky", 2)

	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestLiveEndpoint_IgnoresReadinessChecks(t *testing.T) {
	h := newHealth(t)
	h.Register(Check{Name: "postgres", Probe: Readiness, Func: failing("down")})
	runTimes(h, "postgres", 3)

	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		ready    bool
		checks   []Check
		wantCode int
		want     map[string]string
	}{
		{
			name:     "ready without checks",
			ready:    true,
			wantCode: http.StatusOK,
		},
		{
			name:     "not ready",
			checks:   []Check{{Name: "postgres", Probe: Readiness, Func: passing()}},
			wantCode: http.StatusServiceUnavailable,
			want:     map[string]string{"_readiness": "service is not ready"},
		},
		{
			name:  "one failing",
			ready: true,
			checks: []Check{
				{Name: "postgres", Probe: Readiness, Func: failing("down")},
				{Name: "cache", Probe: Readiness, Func: passing()},
			},
			wantCode: http.StatusServiceUnavailable,
			want:     map[string]string{"postgres": "down"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHealth(t)
			for _, c := range tt.checks {
				h.Register(c)
				runTimes(h, c.Name, 3)
			}
			h.SetReady(tt.ready)

			code, body := probe(t, h.ReadyEndpoint)
			assert.Equal(t, tt.wantCode, code)
			if tt.want != nil {
				assert.Equal(t, tt.want, body.Checks)
			}
		})
	}
}

func TestIsReady(t *testing.T) {
	h := newHealth(t)
	h.Register(Check{Name: "postgres", Probe: Readiness, Func: passing()})

	assert.False(t, h.IsReady())
	h.SetReady(true)
	assert.True(t, h.IsReady())
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestCheckRecovery(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h, err := New(Options{Logger: zap.New(core)})
	require.NoError(t, err)

	down := true
	h.Register(Check{Name: "flaky", Func: func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	}})

	runTimes(h, "flaky", 3)
	assert.Equal(t, "down", h.failures(Liveness)["flaky"])
	assert.Equal(t, 1, logs.FilterMessage("Health check failing").Len())

	down = false
	runTimes(h, "flaky", 1)
	assert.Empty(t, h.failures(Liveness))
	assert.Equal(t, 1, logs.FilterMessage("Health check recovered").Len())
}

func TestCheckSuccessThreshold(t *testing.T) {
	h := newHealth(t)
	down := true
	h.Register(Check{Name: "slow", SuccessThreshold: 2, Func: func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	}})
	runTimes(h, "slow", 3)

	down = false
	runTimes(h, "slow", 1)
	assert.Equal(t, "check is unhealthy", h.failures(Liveness)["slow"])
	runTimes(h, "slow", 1)
	assert.Empty(t, h.failures(Liveness))
}

func TestCheckTimeout(t *testing.T) {
	h := newHealth(t)
	h.Register(Check{Name: "hang", Timeout: 10 * time.Millisecond, FailureThreshold: 1, Func: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	runTimes(h, "hang", 1)
	assert.Contains(t, h.failures(Liveness)["hang"], "deadline exceeded")
}

func TestStartStop(t *testing.T) {
	h := newHealth(t)
	var (
		mu    sync.Mutex
		calls int
	)
	h.Register(Check{Name: "count", Func: func(context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}})

	h.Start(context.Background(), 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := newHealth(t)
	h.Register(Check{Name: "live", Func: failing("err")})
	h.Register(Check{Name: "ready", Probe: Readiness, Func: passing()})
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()
				h.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	assert.NoError(t, PingCheck(pinger{})(context.Background()))
	err := PingCheck(pinger{err: errors.New("refused")})(context.Background())
	assert.EqualError(t, err, "ping: refused")
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}
