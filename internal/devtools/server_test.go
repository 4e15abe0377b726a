package devtools

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/statekit/pkg/inject"
	"github.com/vango-dev/statekit/pkg/reactive"
	"github.com/vango-dev/statekit/pkg/telemetry"
)

type cart struct{ items int }

type session struct{ user string }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	registry *inject.Registry
	tracker  *reactive.Tracker
	hub      *Hub
	server   *httptest.Server
}

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()
	hub := NewHub(HubOptions{BufferSize: 4, Logger: quietLogger()})
	f := &fixture{
		registry: inject.New(inject.WithHook(hub.Hook())),
		tracker:  reactive.NewTracker(),
		hub:      hub,
	}
	o := Options{
		Registry: f.registry,
		Tracker:  f.tracker,
		Hub:      hub,
		Logger:   quietLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	f.server = httptest.NewServer(NewServer(o).Handler())
	t.Cleanup(func() {
		hub.Close()
		f.server.Close()
	})
	return f
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
	}
	return resp
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	var body map[string]string
	resp := getJSON(t, f.server.URL+"/healthz", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestRegistryEndpoint(t *testing.T) {
	f := newFixture(t)
	inject.AutoDisposePut(f.registry, &cart{})
	inject.PutScoped(f.registry, &session{user: "ada"}, "login")
	inject.PutTagged(f.registry, &cart{}, "wishlist")
	inject.LazyPut(f.registry, func() (string, error) { return "lazy", nil })

	var body RegistryResponse
	resp := getJSON(t, f.server.URL+"/api/registry", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.ElementsMatch(t, []string{"*devtools.cart", "*devtools.session", "string"}, body.Keys)
	assert.Equal(t, []string{"*devtools.cart"}, body.AutoDispose)
	assert.Equal(t, []string{"*devtools.session"}, body.Scopes["login"])
	assert.Equal(t, []string{"*devtools.cart#wishlist"}, body.Tagged)
	assert.Equal(t, []string{"string"}, body.Factories)
}

func TestRegistryEndpoint_NoRegistry(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Registry = nil })

	var body map[string]map[string]string
	resp := getJSON(t, f.server.URL+"/api/registry", &body)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "no registry attached", body["error"]["message"])
}

func TestTrackerEndpoint(t *testing.T) {
	f := newFixture(t)
	value := reactive.NewObservable(f.tracker, 1)
	obs := reactive.NewCallback(func() {})
	require.NoError(t, f.tracker.Run(obs, func() error {
		_ = value.Get()
		return nil
	}))

	var body TrackerResponse
	getJSON(t, f.server.URL+"/api/tracker", &body)

	assert.True(t, body.Available)
	assert.Equal(t, 1, body.Observers)
	assert.Equal(t, 1, body.Subscriptions)
}

func TestTrackerEndpoint_NoTracker(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Tracker = nil })

	var body TrackerResponse
	getJSON(t, f.server.URL+"/api/tracker", &body)
	assert.False(t, body.Available)
}

func TestEventsEndpoint_RingBuffer(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		inject.Put(f.registry, &cart{items: i})
	}
	inject.Delete[*cart](f.registry)
	inject.PutTagged(f.registry, &session{}, "admin")

	var body EventsResponse
	getJSON(t, f.server.URL+"/api/events", &body)

	require.Len(t, body.Events, 4, "buffer holds the last 4 events")
	assert.Equal(t, "put", body.Events[0].Event)
	assert.Equal(t, "delete", body.Events[2].Event)
	last := body.Events[3]
	assert.Equal(t, "putTagged", last.Event)
	assert.Equal(t, "*devtools.session", last.Key)
	assert.Equal(t, "admin", last.Tag)
	assert.NotEmpty(t, last.ID)
	assert.NotEqual(t, body.Events[2].ID, last.ID)
}

func TestEventsEndpoint_WithoutHub(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Hub = nil })

	resp, err := http.Get(f.server.URL + "/api/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))

	f := newFixture(t, func(o *Options) { o.Gatherer = reg })
	f.registry.SetHook(inject.ChainHooks(f.hub.Hook(), m.Hook()))
	inject.Put(f.registry, &cart{})

	resp, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `statekit_registry_events_total{event="put"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func dialWS(t *testing.T, f *fixture, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) EventMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg EventMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocket_ReplayThenLive(t *testing.T) {
	f := newFixture(t)
	inject.Put(f.registry, &cart{})

	conn := dialWS(t, f, nil)
	replayed := readEvent(t, conn)
	assert.Equal(t, "put", replayed.Event)
	assert.Equal(t, "*devtools.cart", replayed.Key)

	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	inject.PutScoped(f.registry, &session{}, "checkout")
	f.registry.DisposeScope("checkout")

	assert.Equal(t, "putScoped", readEvent(t, conn).Event)
	assert.Equal(t, "dispose", readEvent(t, conn).Event)
	assert.Equal(t, "disposeScope", readEvent(t, conn).Event)
}

func TestWebSocket_ClientDisconnect(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f, nil)
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)

	inject.Put(f.registry, &cart{})
}

func TestWebSocket_OriginCheck(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_AllowOrigins(t *testing.T) {
	check := allowOrigins([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req), "requests without Origin are allowed")

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, allowOrigins([]string{"*"})(req))
}

func TestHub_RecentOrder(t *testing.T) {
	hub := NewHub(HubOptions{BufferSize: 2, Logger: quietLogger()})
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	hub.now = func() time.Time { return fixed }

	assert.Empty(t, hub.Recent())

	hub.Publish(inject.EventPut, inject.KeyOf[*cart]())
	hub.Publish(inject.EventDelete, inject.KeyOf[*cart]())
	hub.Publish(inject.EventReset, inject.Key{})

	recent := hub.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "delete", recent[0].Event)
	assert.Equal(t, "reset", recent[1].Event)
	assert.Empty(t, recent[1].Key)
	assert.Equal(t, fixed, recent[1].Time)
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(Options{Registry: inject.New(), Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_StartInvalidAddress(t *testing.T) {
	srv := NewServer(Options{Addr: "invalid-address", Registry: inject.New(), Logger: quietLogger()})

	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E201")
}
