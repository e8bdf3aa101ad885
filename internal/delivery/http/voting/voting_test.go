package http_voting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/storypoker/internal/delivery/http/common"
	http_init "github.com/humanbelnik/storypoker/internal/delivery/http/init"
	infra_postgres_room "github.com/humanbelnik/storypoker/internal/infra/postgres/room"
	"github.com/humanbelnik/storypoker/internal/model"
	service_credential "github.com/humanbelnik/storypoker/internal/service/auth/credential"
	"github.com/humanbelnik/storypoker/internal/testutil"
	usecase_room "github.com/humanbelnik/storypoker/internal/usecase/room"
	mocks_publisher "github.com/humanbelnik/storypoker/internal/usecase/room/mocks/room/publisher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler    http.Handler
	uc         *usecase_room.Usecase
	credential string
	roomID     string
	storyID    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	secret := "voting-test"
	publisher := mocks_publisher.NewPublisher(t)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	uc := usecase_room.New(infra_postgres_room.New(testutil.OpenStore(t)), publisher, service_credential.New(&secret))

	created, err := uc.CreateRoom(context.Background(), "Sprint", "Alice", []model.StoryDraft{{Title: "Search"}})
	require.NoError(t, err)

	pool := http_init.NewControllerPool(http_init.APIPrefix)
	pool.Add(New(uc))
	pool.Register()

	return &fixture{
		handler:    pool.Handler(),
		uc:         uc,
		credential: created.Credential,
		roomID:     created.Room.ID,
		storyID:    created.Stories[0].ID,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, http_init.APIPrefix+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.credential)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestVoteStatuses(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		storyID  string
		body     any
		expected int
	}{
		{name: "card", storyID: f.storyID, body: VoteRequestDTO{Value: model.IntPtr(5)}, expected: http.StatusOK},
		{name: "abstain", storyID: f.storyID, body: map[string]any{"value": nil}, expected: http.StatusOK},
		{name: "out of range", storyID: f.storyID, body: VoteRequestDTO{Value: model.IntPtr(400)}, expected: http.StatusBadRequest},
		{name: "unknown story", storyID: "missing", body: VoteRequestDTO{Value: model.IntPtr(1)}, expected: http.StatusNotFound},
		{name: "no body", storyID: f.storyID, expected: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPut, "/stories/"+tc.storyID+"/vote", tc.body)
			assert.Equal(t, tc.expected, rec.Code, rec.Body.String())
			assert.Empty(t, rec.Header().Get(http_common.StaleHeader))
		})
	}
}

func TestCompleteAndUncomplete(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/stories/"+f.storyID+"/complete", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "nobody voted yet")

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/stories/"+f.storyID+"/vote", VoteRequestDTO{Value: model.IntPtr(3)}).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/stories/"+f.storyID+"/complete", nil).Code)

	rec = f.do(t, http.MethodPut, "/stories/"+f.storyID+"/vote", VoteRequestDTO{Value: model.IntPtr(8)})
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/stories/"+f.storyID+"/uncomplete", nil).Code)

	snap, err := f.uc.Snapshot(context.Background(), f.credential, f.roomID)
	require.NoError(t, err)
	assert.False(t, snap.Stories[0].IsCompleted)
	assert.Empty(t, snap.Stories[0].Votes)
}
