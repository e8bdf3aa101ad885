package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/humanbelnik/storypoker/internal/client/state"
)

var (
	ErrTicketExchange = errors.New("ticket exchange failed")
)

type Status int

const (
	StatusOffline Status = iota
	StatusLive
)

func (s Status) String() string {
	if s == StatusLive {
		return "live"
	}
	return "offline"
}

const (
	defaultExchangeTimeout = 5 * time.Second
	defaultMinBackoff      = 500 * time.Millisecond
	defaultMaxBackoff      = 30 * time.Second

	maxTicketSize = 4096
)

type Options struct {
	// RelayURL is the relay base, e.g. http://localhost:3001.
	RelayURL   string
	Credential string

	ExchangeTimeout time.Duration
	MinBackoff      time.Duration
	MaxBackoff      time.Duration

	Logger     *slog.Logger
	HTTPClient *http.Client
	Dialer     *websocket.Dialer
}

// Connection owns one viewer's event stream. It reconnects until Run's context ends.
type Connection struct {
	base *url.URL
	opts Options

	mu        sync.Mutex
	status    Status
	observers map[int]func(Status)
	nextID    int
}

func New(opts Options) (*Connection, error) {
	base, err := url.Parse(strings.TrimRight(opts.RelayURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("relay url must be http or https, got %q", opts.RelayURL)
	}
	if opts.Credential == "" {
		return nil, errors.New("credential is required")
	}

	if opts.ExchangeTimeout <= 0 {
		opts.ExchangeTimeout = defaultExchangeTimeout
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = defaultMinBackoff
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = max(defaultMaxBackoff, opts.MinBackoff)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}

	return &Connection{
		base:      base,
		opts:      opts,
		observers: make(map[int]func(Status)),
	}, nil
}

func (c *Connection) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// OnStatus registers fn for every live/offline transition.
func (c *Connection) OnStatus(fn func(Status)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Run keeps the stream open and hands each event to consume in arrival order.
// consume is never called concurrently. Run returns ctx.Err() once ctx ends.
func (c *Connection) Run(ctx context.Context, consume func(state.Event)) error {
	attempt := 0
	for {
		opened, err := c.session(ctx, consume)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if opened {
			attempt = 0
		}
		attempt++

		delay := c.backoff(attempt)
		c.opts.Logger.Warn("relay stream closed, reconnecting",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", errString(err)),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one exchange-dial-read cycle. opened reports whether the stream went live.
func (c *Connection) session(ctx context.Context, consume func(state.Event)) (opened bool, err error) {
	ticket, err := c.exchange(ctx)
	if err != nil {
		return false, err
	}

	conn, resp, err := c.opts.Dialer.DialContext(ctx, c.streamURL(ticket), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("dial relay stream: %w", err)
	}
	defer conn.Close()

	c.setStatus(StatusLive)
	defer c.setStatus(StatusOffline)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}

		e, err := state.DecodeFrame(raw)
		if err != nil {
			c.opts.Logger.Warn("skipping relay frame", slog.String("error", err.Error()))
			continue
		}
		consume(e)
	}
}

func (c *Connection) exchange(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ExchangeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+"/token", nil)
	if err != nil {
		return "", errors.Join(ErrTicketExchange, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Credential)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return "", errors.Join(ErrTicketExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTicketSize))
	if err != nil {
		return "", errors.Join(ErrTicketExchange, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrTicketExchange, resp.StatusCode)
	}

	ticket := strings.TrimSpace(string(body))
	if ticket == "" {
		return "", fmt.Errorf("%w: empty ticket", ErrTicketExchange)
	}
	return ticket, nil
}

func (c *Connection) streamURL(ticket string) string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {ticket}}.Encode()
	return u.String()
}

// backoff doubles from MinBackoff up to MaxBackoff and keeps a random half of the step.
func (c *Connection) backoff(attempt int) time.Duration {
	delay := c.opts.MaxBackoff
	if shift := attempt - 1; shift < 32 {
		if d := c.opts.MinBackoff << shift; d > 0 && d < delay {
			delay = d
		}
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half+1)))
}

func (c *Connection) setStatus(s Status) {
	c.mu.Lock()
	if c.status == s {
		c.mu.Unlock()
		return
	}
	c.status = s
	observers := make([]func(Status), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
