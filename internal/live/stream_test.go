package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/time-agent/internal/domain"
	"github.com/ashureev/time-agent/internal/identity"
	"github.com/ashureev/time-agent/internal/session"
)

const owner = "agent_0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T, h *Handler) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(identity.WithPlayerID(r.Context(), owner)))
		})
	})
	r.Get("/ws/sessions/{id}", h.ServeHTTP)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func oneRoom() domain.PuzzleSet {
	return domain.PuzzleSet{
		Topic: "Herzl",
		Puzzles: []domain.Puzzle{{
			ID: "c", Type: domain.CodeEntry, Description: "The congress hall is silent.",
			Question: "q", Explanation: "e", CorrectCode: domain.StringPtr("basel"),
		}},
	}
}

func readTick(t *testing.T, ctx context.Context, conn *websocket.Conn) Tick {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var tick Tick
	require.NoError(t, json.Unmarshal(data, &tick))
	return tick
}

func TestStreamTicksAndFinishes(t *testing.T) {
	mgr := session.NewManager(session.Options{})
	sess, err := mgr.Create(owner, oneRoom())
	require.NoError(t, err)
	require.NoError(t, sess.Begin())

	h := NewHandler(managerSource{mgr}, []string{"*"}, true)
	h.interval = 10 * time.Millisecond
	h.now = func() time.Time { return time.Now().Add(time.Minute) }
	srv := newTestServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + sess.ID
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	tick := readTick(t, ctx, conn)
	assert.Equal(t, "tick", tick.Type)
	assert.Equal(t, session.PhaseActive, tick.Phase)
	assert.Equal(t, "The congress hall is silent.", tick.RevealedDescription)
	assert.InDelta(t, 19*60, tick.RemainingSeconds, 2)

	_, err = sess.Submit(domain.Submission{Code: "Basel"})
	require.NoError(t, err)
	done, err := sess.Advance()
	require.NoError(t, err)
	require.True(t, done)

	for {
		tick = readTick(t, ctx, conn)
		if tick.Type == "finished" {
			break
		}
	}
	require.NotNil(t, tick.Report)
	assert.Equal(t, 100, tick.Report.Score)
}

func TestStreamClosesWhenSessionRemoved(t *testing.T) {
	mgr := session.NewManager(session.Options{})
	sess, err := mgr.Create(owner, oneRoom())
	require.NoError(t, err)
	require.NoError(t, sess.Begin())

	h := NewHandler(managerSource{mgr}, []string{"*"}, true)
	h.interval = 10 * time.Millisecond
	srv := newTestServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + sess.ID
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	assert.Equal(t, "tick", readTick(t, ctx, conn).Type)
	require.NoError(t, mgr.Delete(owner, sess.ID))

	var last Tick
	for range 10 {
		last = readTick(t, ctx, conn)
		if last.Type != "tick" {
			break
		}
	}
	assert.Equal(t, "closed", last.Type)
	assert.Equal(t, sess.ID, last.SessionID)

	_, _, err = conn.Read(ctx)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestStreamUnknownSession(t *testing.T) {
	h := NewHandler(managerSource{session.NewManager(session.Options{})}, []string{"*"}, true)
	srv := newTestServer(t, h)

	resp, err := http.Get(srv.URL + "/ws/sessions/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckOrigin(t *testing.T) {
	h := NewHandler(nil, []string{"https://archive.example"}, false)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://archive.example")
	assert.True(t, h.checkOrigin(r))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, h.checkOrigin(r))
}

type managerSource struct{ m *session.Manager }

func (s managerSource) Session(owner, id string) (*session.Session, error) { return s.m.Get(owner, id) }
