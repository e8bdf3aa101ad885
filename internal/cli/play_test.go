package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/humanbelnik/storypoker/internal/client/gateway"
	http_init "github.com/humanbelnik/storypoker/internal/delivery/http/init"
	http_room "github.com/humanbelnik/storypoker/internal/delivery/http/room"
	http_voting "github.com/humanbelnik/storypoker/internal/delivery/http/voting"
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

func newGateway(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	secret := "cli-test"
	publisher := mocks_publisher.NewPublisher(t)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	uc := usecase_room.New(infra_postgres_room.New(testutil.OpenStore(t)), publisher, service_credential.New(&secret))

	pool := http_init.NewControllerPool(http_init.APIPrefix)
	pool.Add(http_room.New(uc))
	pool.Add(http_voting.New(uc))
	pool.Register()

	srv := httptest.NewServer(pool.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestWatchAppliesCommands(t *testing.T) {
	url := newGateway(t)
	ctx := context.Background()

	alice := gateway.New(url)
	created, err := alice.CreateRoom(ctx, "Sprint", "Alice", []model.StoryDraft{{Title: "Login"}})
	require.NoError(t, err)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetIn(strings.NewReader("vote 5\nadd Search: full text\nbogus\nquit\n"))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{
		"watch", created.Room.ID,
		"--credential", created.Credential,
		"--gateway", url,
		"--relay", "http://127.0.0.1:1",
	})
	require.NoError(t, cmd.ExecuteContext(ctx))

	assert.Contains(t, out.String(), "== Sprint [offline] ==")
	assert.Contains(t, out.String(), "your card: 5")
	assert.Contains(t, out.String(), `unknown command "bogus"`)

	snap, err := alice.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Stories, 2)
	vote, ok := snap.Stories[0].VoteOf(created.Member.ID)
	require.True(t, ok)
	assert.Equal(t, model.IntPtr(5), vote.Value)
	assert.Equal(t, "full text", snap.Stories[1].Description)
}

func TestWatchRequiresCredential(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"watch", "room-1"})
	assert.Error(t, cmd.Execute())
}
