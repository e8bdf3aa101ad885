package infra_redis_ticket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/humanbelnik/storypoker/internal/model"
)

var ErrTicketNotFound = errors.New("ticket not found or already used")

// Driver keeps short-lived stream tickets. A ticket stands in for an access
// credential on the websocket URL and can be redeemed once.
type Driver struct {
	client *redis.Client
	key    string
}

func New(
	client *redis.Client,
	key string,
) *Driver {
	return &Driver{
		client: client,
		key:    key,
	}
}

type ticketDTO struct {
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
	RoomID   string `json:"roomId"`
}

func (d *Driver) Issue(ctx context.Context, viewer model.Viewer, ttl time.Duration) (string, error) {
	raw, err := json.Marshal(ticketDTO{
		MemberID: viewer.MemberID,
		Name:     viewer.Name,
		RoomID:   viewer.RoomID,
	})
	if err != nil {
		return "", err
	}

	ticket := uuid.NewString()
	if err := d.client.WithContext(ctx).Set(d.getFullKey(ticket), raw, ttl).Err(); err != nil {
		return "", err
	}

	return ticket, nil
}

// Redeem reads and deletes the ticket in one MULTI block.
func (d *Driver) Redeem(ctx context.Context, ticket string) (model.Viewer, error) {
	if ticket == "" {
		return model.Viewer{}, ErrTicketNotFound
	}
	fullKey := d.getFullKey(ticket)

	pipe := d.client.WithContext(ctx).TxPipeline()
	get := pipe.Get(fullKey)
	pipe.Del(fullKey)
	_, execErr := pipe.Exec()

	raw, err := get.Bytes()
	if err != nil {
		if err == redis.Nil {
			return model.Viewer{}, ErrTicketNotFound
		}
		return model.Viewer{}, err
	}
	if execErr != nil {
		return model.Viewer{}, execErr
	}

	var dto ticketDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return model.Viewer{}, err
	}

	return model.Viewer{
		MemberID: dto.MemberID,
		Name:     dto.Name,
		RoomID:   dto.RoomID,
	}, nil
}

func (d *Driver) getFullKey(key string) string {
	if d.key != "" {
		return d.key + ":" + key
	}
	return key
}
