package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/humanbelnik/storypoker/internal/client/state"
	"github.com/humanbelnik/storypoker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRelay struct {
	srv       *httptest.Server
	exchanges atomic.Int32
	rejectFor int32
}

// newFakeRelay serves one next_story frame per stream and then hangs up.
func newFakeRelay(t *testing.T, rejectFor int32) *fakeRelay {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := &fakeRelay{rejectFor: rejectFor}
	upgrader := websocket.Upgrader{}

	router := gin.New()
	router.POST("/token", func(ctx *gin.Context) {
		n := r.exchanges.Add(1)
		if ctx.GetHeader("Authorization") != "Bearer cred" || n <= r.rejectFor {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		ctx.String(http.StatusOK, "ticket-1")
	})
	router.GET("/ws", func(ctx *gin.Context) {
		if ctx.Query("token") != "ticket-1" {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteJSON(model.Frame{Action: model.ActionNextStory, StoryID: "s-2"})
	})

	r.srv = httptest.NewServer(router)
	t.Cleanup(r.srv.Close)
	return r
}

func newConnection(t *testing.T, relayURL string) *Connection {
	t.Helper()
	conn, err := New(Options{
		RelayURL:   relayURL,
		Credential: "cred",
		MinBackoff: 5 * time.Millisecond,
		MaxBackoff: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	return conn
}

func TestRunReconnectsAfterServerClose(t *testing.T) {
	relay := newFakeRelay(t, 0)
	conn := newConnection(t, relay.srv.URL)

	var (
		mu       sync.Mutex
		statuses []Status
	)
	conn.OnStatus(func(s Status) {
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan state.Event, 8)
	go func() {
		_ = conn.Run(ctx, func(e state.Event) { events <- e })
	}()

	for i := 0; i < 2; i++ {
		select {
		case e := <-events:
			assert.Equal(t, state.NextStory{StoryID: "s-2"}, e)
		case <-ctx.Done():
			t.Fatal("no event delivered")
		}
	}
	cancel()

	assert.GreaterOrEqual(t, relay.exchanges.Load(), int32(2))

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(statuses), 3)
	assert.Equal(t, []Status{StatusLive, StatusOffline, StatusLive}, statuses[:3])
}

func TestRunRetriesRejectedExchange(t *testing.T) {
	relay := newFakeRelay(t, 2)
	conn := newConnection(t, relay.srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan state.Event, 1)
	go func() {
		_ = conn.Run(ctx, func(e state.Event) {
			select {
			case got <- e:
			default:
			}
		})
	}()

	select {
	case <-got:
	case <-ctx.Done():
		t.Fatal("stream never opened")
	}
	assert.GreaterOrEqual(t, relay.exchanges.Load(), int32(3))
}

func TestRunReturnsWhenContextEnds(t *testing.T) {
	conn := newConnection(t, "http://127.0.0.1:1")

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- conn.Run(ctx, func(state.Event) {}) }()

	cancel()
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, StatusOffline, conn.Status())
}

func TestBackoffIsCapped(t *testing.T) {
	conn := newConnection(t, "http://localhost:3001")

	for attempt := 1; attempt < 80; attempt++ {
		d := conn.backoff(attempt)
		assert.GreaterOrEqual(t, d, 2*time.Millisecond)
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
	assert.LessOrEqual(t, conn.backoff(1), 5*time.Millisecond)
}

func TestStreamURL(t *testing.T) {
	conn := newConnection(t, "https://relay.example.com/base/")
	assert.Equal(t, "wss://relay.example.com/base/ws?token=a%2Bb", conn.streamURL("a+b"))
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{RelayURL: "ftp://relay", Credential: "cred"})
	assert.Error(t, err)

	_, err = New(Options{RelayURL: "http://relay"})
	assert.Error(t, err)
}
