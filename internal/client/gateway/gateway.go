package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/humanbelnik/storypoker/internal/model"
)

const (
	apiPrefix   = "/api/v1"
	staleHeader = "X-View-Stale"
)

var ErrNotJoined = errors.New("not joined to a room")

// APIError is a non-2xx answer of the gateway.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Message)
}

// Client talks to the gateway on behalf of one viewer. Once a room is created or
// joined the credential is kept and sent with every call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu         sync.RWMutex
	credential string
	roomID     string

	onStale func()
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithStaleHandler is called whenever a mutation was committed but not broadcast.
func WithStaleHandler(fn func()) Option {
	return func(c *Client) {
		c.onStale = fn
	}
}

func WithCredential(roomID, credential string) Option {
	return func(c *Client) {
		c.roomID = roomID
		c.credential = credential
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

func (c *Client) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

type createRoomRequest struct {
	Name       string             `json:"name"`
	MemberName string             `json:"memberName"`
	Stories    []model.StoryDraft `json:"stories"`
}

type CreateRoomResponse struct {
	Room       model.Room    `json:"room"`
	Member     model.Member  `json:"member"`
	Credential string        `json:"credential"`
	Stories    []model.Story `json:"stories"`
}

func (c *Client) CreateRoom(ctx context.Context, name, memberName string, stories []model.StoryDraft) (CreateRoomResponse, error) {
	var resp CreateRoomResponse
	err := c.do(ctx, http.MethodPost, "/rooms", createRoomRequest{
		Name:       name,
		MemberName: memberName,
		Stories:    stories,
	}, &resp)
	if err != nil {
		return CreateRoomResponse{}, err
	}

	c.setCredential(resp.Room.ID, resp.Credential)
	return resp, nil
}

type JoinResponse struct {
	Member     model.Member `json:"member"`
	Credential string       `json:"credential"`
}

// JoinRoom presents the kept credential, if any, so that rejoining yields the same member.
func (c *Client) JoinRoom(ctx context.Context, roomID, name string) (JoinResponse, error) {
	var resp JoinResponse
	if err := c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/members", map[string]string{"name": name}, &resp); err != nil {
		return JoinResponse{}, err
	}

	c.setCredential(roomID, resp.Credential)
	return resp, nil
}

func (c *Client) Snapshot(ctx context.Context) (model.Snapshot, error) {
	roomID := c.RoomID()
	if roomID == "" {
		return model.Snapshot{}, ErrNotJoined
	}

	var snap model.Snapshot
	if err := c.do(ctx, http.MethodGet, "/rooms/"+roomID, nil, &snap); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

func (c *Client) AddStory(ctx context.Context, title, description string) (model.Story, error) {
	roomID := c.RoomID()
	if roomID == "" {
		return model.Story{}, ErrNotJoined
	}

	var resp struct {
		Story model.Story `json:"story"`
	}
	err := c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/stories", model.StoryDraft{Title: title, Description: description}, &resp)
	if err != nil {
		return model.Story{}, err
	}
	return resp.Story, nil
}

func (c *Client) Vote(ctx context.Context, storyID string, value *int) error {
	return c.do(ctx, http.MethodPut, "/stories/"+storyID+"/vote", map[string]*int{"value": value}, nil)
}

func (c *Client) CompleteStory(ctx context.Context, storyID string) error {
	return c.do(ctx, http.MethodPost, "/stories/"+storyID+"/complete", nil, nil)
}

func (c *Client) UncompleteStory(ctx context.Context, storyID string) error {
	return c.do(ctx, http.MethodPost, "/stories/"+storyID+"/uncomplete", nil, nil)
}

func (c *Client) NextStory(ctx context.Context) error {
	roomID := c.RoomID()
	if roomID == "" {
		return ErrNotJoined
	}
	return c.do(ctx, http.MethodPost, "/rooms/"+roomID+"/next-story", nil, nil)
}

func (c *Client) setCredential(roomID, credential string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
	c.credential = credential
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential := c.Credential(); credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}

	if resp.Header.Get(staleHeader) != "" {
		c.logger.Warn("change saved but not broadcast", slog.String("path", path))
		if c.onStale != nil {
			c.onStale()
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
