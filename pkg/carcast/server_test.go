package carcast_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/carcast/internal/domain"
	"github.com/bft-labs/carcast/pkg/carcast"
	"github.com/bft-labs/carcast/pkg/generator"
	"github.com/bft-labs/carcast/pkg/wire"
)

// =============================================================================
// Test Utilities
// =============================================================================

func testConfig() carcast.Config {
	cfg := carcast.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.SendInterval = 20 * time.Millisecond
	return cfg
}

// trackingPlugin records initialization and shutdown order.
type trackingPlugin struct {
	carcast.BasePlugin
	name      string
	mu        *sync.Mutex
	order     *[]string
	initError error
	cfg       carcast.PluginConfig
}

func (p *trackingPlugin) Name() string { return p.name }

func (p *trackingPlugin) Initialize(ctx context.Context, cfg carcast.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initError != nil {
		return p.initError
	}
	p.cfg = cfg
	*p.order = append(*p.order, "init:"+p.name)
	return nil
}

func (p *trackingPlugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.order = append(*p.order, "shutdown:"+p.name)
	return nil
}

// eventTracker records server events.
type eventTracker struct {
	carcast.BaseEventHandler
	mu     sync.Mutex
	states []carcast.StateChangeEvent
	opened int
	closed []carcast.ConnectionEvent
}

func (e *eventTracker) OnStateChange(ev carcast.StateChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = append(e.states, ev)
}

func (e *eventTracker) OnConnectionOpened(carcast.ConnectionEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened++
}

func (e *eventTracker) OnConnectionClosed(ev carcast.ConnectionEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = append(e.closed, ev)
}

func (e *eventTracker) counts() (opened, closed int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened, len(e.closed)
}

// =============================================================================
// Tests
// =============================================================================

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*carcast.Config)
	}{
		{"negative port", func(c *carcast.Config) { c.Port = -1 }},
		{"port too large", func(c *carcast.Config) { c.Port = 70000 }},
		{"negative interval", func(c *carcast.Config) { c.SendInterval = -time.Second }},
		{"negative write timeout", func(c *carcast.Config) { c.WriteTimeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mod(&cfg)
			_, err := carcast.New(cfg)
			assert.ErrorIs(t, err, carcast.ErrInvalidConfig)
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := carcast.DefaultConfig()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 12345, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.SendInterval)
	assert.Equal(t, "localhost:12345", cfg.Addr())

	var empty carcast.Config
	empty.SetDefaults()
	assert.Equal(t, "localhost", empty.Host)
	assert.Equal(t, 2*time.Second, empty.SendInterval)
}

func TestServer_StreamsDeterministicReadings(t *testing.T) {
	readings := []domain.Reading{
		{Speed: 42.5, YawRate: -1.25},
		{Speed: 0, YawRate: 4.99},
	}
	srv, err := carcast.New(testConfig(), carcast.WithSource(generator.NewSequence(readings...)))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop()

	assert.Equal(t, carcast.StateRunning, srv.Status())
	require.NotEmpty(t, srv.Addr())

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	for _, want := range readings {
		f, err := wire.ReadFrame(conn, wire.DefaultMaxFrameSize)
		require.NoError(t, err)
		got, err := wire.DecodeReading(f.Payload)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.Eventually(t, func() bool { return srv.ActiveConnections() == 1 }, time.Second, 10*time.Millisecond)
}

func TestServer_StartStopLifecycle(t *testing.T) {
	events := &eventTracker{}
	srv, err := carcast.New(testConfig(), carcast.WithEventHandler(events))
	require.NoError(t, err)

	assert.Equal(t, carcast.StateStopped, srv.Status())
	assert.ErrorIs(t, srv.Stop(), carcast.ErrNotRunning)

	require.NoError(t, srv.Start(context.Background()))
	assert.ErrorIs(t, srv.Start(context.Background()), carcast.ErrAlreadyRunning)

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err = wire.ReadFrame(conn, wire.DefaultMaxFrameSize)
	require.NoError(t, err)

	require.NoError(t, srv.Stop())
	assert.Equal(t, carcast.StateStopped, srv.Status())
	assert.Equal(t, 0, srv.ActiveConnections())

	opened, closed := events.counts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
	assert.NoError(t, events.closed[0].Err, "shutdown close carries no error")

	var got []carcast.State
	for _, ev := range events.states {
		got = append(got, ev.Current)
	}
	assert.Equal(t, []carcast.State{
		carcast.StateStarting, carcast.StateRunning, carcast.StateStopping, carcast.StateStopped,
	}, got)

	// A stopped server can be started again.
	require.NoError(t, srv.Start(context.Background()))
	require.NoError(t, srv.Stop())
}

func TestServer_BindFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	cfg := testConfig()
	cfg.Port = occupied.Addr().(*net.TCPAddr).Port

	srv, err := carcast.New(cfg)
	require.NoError(t, err)

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, carcast.StateCrashed, srv.Status())
}

func TestServer_PluginOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	a := &trackingPlugin{name: "a", mu: &mu, order: &order}
	b := &trackingPlugin{name: "b", mu: &mu, order: &order}

	srv, err := carcast.New(testConfig(), carcast.WithPlugin(a), carcast.WithPlugin(b))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))

	assert.Equal(t, srv.Addr(), a.cfg.Addr)
	assert.Equal(t, carcast.StateRunning, a.cfg.Status())
	assert.NotNil(t, a.cfg.Gatherer)

	require.NoError(t, srv.Stop())
	assert.Equal(t, []string{"init:a", "init:b", "shutdown:b", "shutdown:a"}, order)
}

func TestServer_PluginInitFailure(t *testing.T) {
	var mu sync.Mutex
	var order []string
	a := &trackingPlugin{name: "a", mu: &mu, order: &order}
	bad := &trackingPlugin{name: "bad", mu: &mu, order: &order, initError: errors.New("boom")}

	srv, err := carcast.New(testConfig(), carcast.WithPlugin(a), carcast.WithPlugin(bad))
	require.NoError(t, err)

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, carcast.StateCrashed, srv.Status())
	assert.Equal(t, []string{"init:a", "shutdown:a"}, order)

	_, err = net.DialTimeout("tcp", a.cfg.Addr, 200*time.Millisecond)
	assert.Error(t, err, "listener should be closed after failed start")
}

func TestServer_SetSendInterval(t *testing.T) {
	srv, err := carcast.New(testConfig())
	require.NoError(t, err)

	assert.Equal(t, 20*time.Millisecond, srv.SendInterval())
	require.NoError(t, srv.SetSendInterval(time.Second))
	assert.Equal(t, time.Second, srv.SendInterval())
	assert.ErrorIs(t, srv.SetSendInterval(0), carcast.ErrInvalidConfig)
	assert.Equal(t, time.Second, srv.SendInterval())
}

func TestServer_ClientDisconnectDoesNotAffectServer(t *testing.T) {
	events := &eventTracker{}
	srv, err := carcast.New(testConfig(), carcast.WithEventHandler(events))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop()

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		_, closed := events.counts()
		return closed == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, carcast.StateRunning, srv.Status())

	events.mu.Lock()
	assert.Error(t, events.closed[0].Err)
	events.mu.Unlock()

	// New clients are still accepted.
	again, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer again.Close()
	require.NoError(t, again.SetReadDeadline(time.Now().Add(time.Second)))
	_, err = wire.ReadFrame(again, wire.DefaultMaxFrameSize)
	assert.NoError(t, err)
}

func TestServer_ParentContextCancelStopsServer(t *testing.T) {
	var mu sync.Mutex
	var order []string
	p := &trackingPlugin{name: "p", mu: &mu, order: &order}
	events := &eventTracker{}

	srv, err := carcast.New(testConfig(), carcast.WithPlugin(p), carcast.WithEventHandler(events))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))
	addr := srv.Addr()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err = wire.ReadFrame(conn, wire.DefaultMaxFrameSize)
	require.NoError(t, err)

	cancel()

	require.Eventually(t, func() bool { return srv.Status() == carcast.StateStopped },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, srv.ActiveConnections())

	_, err = net.DialTimeout("tcp", addr, 200*time.Millisecond)
	assert.Error(t, err, "listener closed")

	mu.Lock()
	assert.Equal(t, []string{"init:p", "shutdown:p"}, order, "plugins shut down without Stop")
	mu.Unlock()

	events.mu.Lock()
	var reasons []string
	for _, ev := range events.states {
		reasons = append(reasons, ev.Reason)
	}
	events.mu.Unlock()
	assert.Contains(t, reasons, "context cancelled")

	assert.ErrorIs(t, srv.Stop(), carcast.ErrNotRunning)

	// The server can be started again after stopping on its own.
	require.NoError(t, srv.Start(context.Background()))
	require.NoError(t, srv.Stop())
}
