package ws_room

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis"
	"github.com/gorilla/websocket"
	http_init "github.com/humanbelnik/storypoker/internal/delivery/http/init"
	http_auth_middleware "github.com/humanbelnik/storypoker/internal/delivery/http/middleware/auth"
	infra_postgres_room "github.com/humanbelnik/storypoker/internal/infra/postgres/room"
	infra_redis_ticket "github.com/humanbelnik/storypoker/internal/infra/redis/ticket"
	"github.com/humanbelnik/storypoker/internal/model"
	service_credential "github.com/humanbelnik/storypoker/internal/service/auth/credential"
	"github.com/humanbelnik/storypoker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVotes struct {
	votes []model.Vote
}

func (s stubVotes) RevealedVotes(_ context.Context, _, _ string) ([]model.Vote, error) {
	return s.votes, nil
}

type relay struct {
	srv         *httptest.Server
	hub         *Hub
	credentials *service_credential.Service
}

func newRelay(t *testing.T, votes VoteReader) *relay {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	secret := "relay-test"
	credentials := service_credential.New(&secret)
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	pool := http_init.NewControllerPool("")
	pool.Add(New(hub, infra_redis_ticket.New(rdb, "ticket"), votes, http_auth_middleware.New(credentials), 10*time.Second))
	pool.Register()

	srv := httptest.NewServer(pool.Handler())
	t.Cleanup(srv.Close)

	return &relay{srv: srv, hub: hub, credentials: credentials}
}

func (r *relay) credential(t *testing.T, memberID, roomID string) string {
	t.Helper()
	c, err := r.credentials.Mint(memberID, memberID, roomID)
	require.NoError(t, err)
	return c
}

func (r *relay) post(t *testing.T, path, credential string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, r.srv.URL+path, strings.NewReader(string(raw)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (r *relay) connect(t *testing.T, credential string) *websocket.Conn {
	t.Helper()
	resp := r.post(t, "/token", credential, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ticket, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(r.srv.URL, "http") + "/ws?token=" + string(ticket)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) model.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame model.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestVoteIsRedactedForOthers(t *testing.T) {
	r := newRelay(t, stubVotes{})
	alice := r.credential(t, "alice", "r1")
	bob := r.credential(t, "bob", "r1")

	aliceConn := r.connect(t, alice)
	bobConn := r.connect(t, bob)
	require.Eventually(t, func() bool { return r.hub.RoomSize("r1") == 2 }, time.Second, 5*time.Millisecond)

	resp := r.post(t, "/vote", alice, model.UserVotedPayload{MemberID: "alice", StoryID: "s1", Value: model.IntPtr(5)})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	own := readFrame(t, aliceConn)
	assert.Equal(t, model.ActionSelfVoted, own.Action)
	assert.Equal(t, model.IntPtr(5), own.Value)

	other := readFrame(t, bobConn)
	assert.Equal(t, model.ActionUserVoted, other.Action)
	assert.Equal(t, "alice", other.MemberID)
	assert.Nil(t, other.Value)
}

func TestVoteForSomebodyElseIsRefused(t *testing.T) {
	r := newRelay(t, stubVotes{})
	alice := r.credential(t, "alice", "r1")

	resp := r.post(t, "/vote", alice, model.UserVotedPayload{MemberID: "bob", StoryID: "s1"})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRevealCarriesAllVotes(t *testing.T) {
	votes := []model.Vote{
		{MemberID: "alice", StoryID: "s1", Value: model.IntPtr(5)},
		{MemberID: "bob", StoryID: "s1", Value: model.IntPtr(8)},
	}
	r := newRelay(t, stubVotes{votes: votes})
	bob := r.credential(t, "bob", "r1")
	conn := r.connect(t, bob)
	require.Eventually(t, func() bool { return r.hub.RoomSize("r1") == 1 }, time.Second, 5*time.Millisecond)

	resp := r.post(t, "/reveal-story", bob, model.StoryRefPayload{StoryID: "s1"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	frame := readFrame(t, conn)
	assert.Equal(t, model.ActionRevealStory, frame.Action)
	require.Len(t, frame.Votes, 2)
	assert.Equal(t, model.IntPtr(8), frame.Votes[1].Value)
}

func TestRevealOfOpenStoryKeepsVotesHidden(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	store := infra_postgres_room.New(testutil.OpenStore(t))

	room := model.Room{ID: "r1", Name: "Sprint", CreatedAt: now, IsActive: true}
	alice := model.Member{ID: "alice", Name: "Alice", RoomID: "r1", AccessCredential: "a", CreatedAt: now}
	bob := model.Member{ID: "bob", Name: "Bob", RoomID: "r1", AccessCredential: "b", CreatedAt: now}
	story := model.Story{ID: "s1", Title: "Login", RoomID: "r1", CreatedAt: now}
	require.NoError(t, store.CreateRoom(ctx, room, alice, []model.Story{story}))
	_, _, err := store.JoinRoom(ctx, "r1", nil, "", bob)
	require.NoError(t, err)
	bobViewer := model.Viewer{MemberID: "bob", Name: "Bob", RoomID: "r1"}
	require.NoError(t, store.UpsertVote(ctx, bobViewer, model.Vote{MemberID: "bob", StoryID: "s1", Value: model.IntPtr(8), CreatedAt: now}))

	r := newRelay(t, store)
	aliceCredential := r.credential(t, "alice", "r1")
	conn := r.connect(t, aliceCredential)
	require.Eventually(t, func() bool { return r.hub.RoomSize("r1") == 1 }, time.Second, 5*time.Millisecond)

	resp := r.post(t, "/reveal-story", aliceCredential, model.StoryRefPayload{StoryID: "s1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.NoError(t, store.CompleteStory(ctx, bobViewer, "s1"))
	resp = r.post(t, "/reveal-story", aliceCredential, model.StoryRefPayload{StoryID: "s1"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	frame := readFrame(t, conn)
	assert.Equal(t, model.ActionRevealStory, frame.Action, "the refused reveal sent nothing")
	require.Len(t, frame.Votes, 1)
	assert.Equal(t, model.IntPtr(8), frame.Votes[0].Value)
}

func TestEventsStayInTheirRoom(t *testing.T) {
	r := newRelay(t, stubVotes{})
	alice := r.credential(t, "alice", "r1")
	eve := r.credential(t, "eve", "r2")
	aliceConn := r.connect(t, alice)
	r.connect(t, eve)
	require.Eventually(t, func() bool { return r.hub.RoomSize("r1") == 1 && r.hub.RoomSize("r2") == 1 }, time.Second, 5*time.Millisecond)

	resp := r.post(t, "/join", eve, model.MembersJoinedPayload{Member: model.MemberSummary{ID: "eve", Name: "Eve"}, RoomID: "r2"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = r.post(t, "/next-story", alice, model.StoryRefPayload{StoryID: "s2"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	frame := readFrame(t, aliceConn)
	assert.Equal(t, model.ActionNextStory, frame.Action, "alice never sees the join in r2")
	assert.Equal(t, "s2", frame.StoryID)
}

func TestStreamRejectsBadTicket(t *testing.T) {
	r := newRelay(t, stubVotes{})

	url := "ws" + strings.TrimPrefix(r.srv.URL, "http") + "/ws?token=forged"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTicketIsSingleUse(t *testing.T) {
	r := newRelay(t, stubVotes{})
	alice := r.credential(t, "alice", "r1")

	resp := r.post(t, "/token", alice, nil)
	ticket, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(r.srv.URL, "http") + "/ws?token=" + string(ticket)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublishRequiresCredential(t *testing.T) {
	r := newRelay(t, stubVotes{})

	resp := r.post(t, "/story", "forged", model.AddStoryPayload{})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
