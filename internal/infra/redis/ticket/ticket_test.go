package infra_redis_ticket

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis"
	"github.com/humanbelnik/storypoker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDriver(t *testing.T) (*Driver, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, "ticket"), srv
}

func TestIssueAndRedeem(t *testing.T) {
	driver, srv := newDriver(t)
	ctx := context.Background()
	viewer := model.Viewer{MemberID: "m1", Name: "Alice", RoomID: "r1"}

	ticket, err := driver.Issue(ctx, viewer, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, srv.Exists("ticket:"+ticket))

	got, err := driver.Redeem(ctx, ticket)
	require.NoError(t, err)
	assert.Equal(t, viewer, got)

	_, err = driver.Redeem(ctx, ticket)
	assert.ErrorIs(t, err, ErrTicketNotFound, "a ticket is single use")
	assert.False(t, srv.Exists("ticket:"+ticket))
}

func TestTicketExpires(t *testing.T) {
	driver, srv := newDriver(t)
	ctx := context.Background()

	ticket, err := driver.Issue(ctx, model.Viewer{MemberID: "m1", RoomID: "r1"}, 5*time.Second)
	require.NoError(t, err)

	srv.FastForward(6 * time.Second)

	_, err = driver.Redeem(ctx, ticket)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestRedeemUnknown(t *testing.T) {
	driver, _ := newDriver(t)

	_, err := driver.Redeem(context.Background(), "")
	assert.ErrorIs(t, err, ErrTicketNotFound)

	_, err = driver.Redeem(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}
