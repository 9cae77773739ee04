package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
	"github.com/vovakirdan/wirechat-presence/internal/service/messages"
	"github.com/vovakirdan/wirechat-presence/internal/store/sqlite"
)

type testEnv struct {
	ts   *httptest.Server
	hub  *core.Hub
	auth *auth.Service
	cfg  *config.Config
}

type testUser struct {
	ID    string
	Name  string
	Token string
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.JWTSecret = "testsecret"
	cfg.HandshakeTimeout = time.Second
	cfg.ClientBuffer = 8
	for _, fn := range mutate {
		fn(&cfg)
	}

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	require.NoError(t, err, "failed to create test store")
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
	hub := core.NewHub(authService, core.HubConfig{
		HandshakeTimeout: cfg.HandshakeTimeout,
		ClientBuffer:     cfg.ClientBuffer,
	}, &logger)
	msgService := messages.New(st, hub, messages.Config{
		MaxTextBytes: cfg.MaxTextBytes,
		HistoryLimit: cfg.HistoryLimit,
	}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := httptest.NewServer(NewRouter(hub, authService, msgService, &cfg, &logger))
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return &testEnv{ts: ts, hub: hub, auth: authService, cfg: &cfg}
}

func (e *testEnv) signup(t *testing.T, name string) testUser {
	t.Helper()
	user, token, err := e.auth.Signup(context.Background(), name, name+"@example.com", "password123")
	require.NoError(t, err)
	return testUser{ID: user.ID, Name: name, Token: token}
}

func (e *testEnv) wsURL() string {
	return strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
}

func (e *testEnv) dial(t *testing.T, ctx context.Context, u testUser) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, e.wsURL(), &websocket.DialOptions{
		HTTPHeader: stdhttp.Header{"Authorization": {"Bearer " + u.Token}},
	})
	require.NoError(t, err, "dial %s", u.Name)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *stdhttp.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := stdhttp.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *stdhttp.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func readOutbound(t *testing.T, ctx context.Context, conn *websocket.Conn) rawOutbound {
	t.Helper()
	var out rawOutbound
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	return out
}

// readUntil skips frames until one matches, failing on timeout.
func readUntil(t *testing.T, conn *websocket.Conn, match func(rawOutbound) bool) rawOutbound {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for {
		var out rawOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("no matching frame: %v", err)
		}
		if match(out) {
			return out
		}
	}
}

func waitPresence(t *testing.T, conn *websocket.Conn, want ...string) {
	t.Helper()
	slices.Sort(want)
	readUntil(t, conn, func(out rawOutbound) bool {
		if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventPresenceUpdate {
			return false
		}
		var p proto.EventPresence
		if err := json.Unmarshal(out.Data, &p); err != nil {
			return false
		}
		return slices.Equal(p.Online, want)
	})
}

func waitMessage(t *testing.T, conn *websocket.Conn) proto.EventMessage {
	t.Helper()
	out := readUntil(t, conn, func(out rawOutbound) bool {
		return out.Type == proto.OutboundTypeEvent && out.Event == proto.EventNewMessage
	})
	var msg proto.EventMessage
	require.NoError(t, json.Unmarshal(out.Data, &msg))
	return msg
}
