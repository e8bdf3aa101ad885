package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/humanbelnik/storypoker/internal/client/gateway"
	"github.com/humanbelnik/storypoker/internal/client/session"
	"github.com/humanbelnik/storypoker/internal/client/state"
)

const requestTimeout = 10 * time.Second

type player struct {
	gw    *gateway.Client
	store *state.Store
	out   *printer

	refresh chan struct{}
}

// runSession keeps the room view in sync with the relay and applies commands read from in
// until quit, end of input or an interrupt.
func runSession(ctx context.Context, opts *RootOptions, roomID, credential string, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	p := &player{
		out:     &printer{out: out},
		refresh: make(chan struct{}, 1),
	}
	p.gw = gateway.New(opts.GatewayURL,
		gateway.WithLogger(logger),
		gateway.WithCredential(roomID, credential),
		gateway.WithStaleHandler(p.requestRefresh),
	)
	p.store = state.NewStore(p.gw)

	conn, err := session.New(session.Options{
		RelayURL:   opts.RelayURL,
		Credential: credential,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	if err := p.reload(ctx); err != nil {
		return fmt.Errorf("load room: %w", err)
	}

	unsubscribe := p.store.Subscribe(func(v state.View) {
		p.out.view(v)
		if v.Stale {
			p.requestRefresh()
		}
	})
	defer unsubscribe()

	unwatch := conn.OnStatus(func(s session.Status) {
		p.store.SetLive(s == session.StatusLive)
		if s == session.StatusLive {
			p.requestRefresh()
		}
	})
	defer unwatch()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := conn.Run(ctx, p.store.Apply); err != nil && !errors.Is(err, context.Canceled) {
			logger.Debug("relay connection ended", slog.String("error", err.Error()))
		}
	}()
	go p.refreshLoop(ctx)

	p.out.view(p.store.View())
	p.out.line("%s", usage)
	return p.readCommands(ctx, in)
}

func (p *player) requestRefresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// refreshLoop replaces the local view with a fresh snapshot whenever it may have drifted.
func (p *player) refreshLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.refresh:
			if err := p.reload(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("failed to reload room", slog.String("error", err.Error()))
			}
		}
	}
}

func (p *player) reload(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	p.store.BeginReload()
	snap, err := p.gw.Snapshot(ctx)
	if err != nil {
		p.store.AbortReload()
		return err
	}
	p.store.Hydrate(snap)
	return nil
}

func (p *player) readCommands(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, err := parseCommand(line)
			if errors.Is(err, errEmptyCommand) {
				continue
			}
			if err != nil {
				p.out.line("%v", err)
				continue
			}
			if cmd.kind == cmdQuit {
				return nil
			}
			if err := p.exec(ctx, cmd); err != nil {
				p.out.line("error: %v", err)
			}
		}
	}
}

func (p *player) exec(ctx context.Context, cmd command) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch cmd.kind {
	case cmdVote:
		return p.store.SelectCard(ctx, cmd.card)
	case cmdReveal:
		return p.store.CompleteActiveStory(ctx)
	case cmdReopen:
		return p.store.ReopenActiveStory(ctx)
	case cmdNext:
		return p.store.NextStory(ctx)
	case cmdGoto:
		stories := p.store.View().Stories
		if cmd.index >= len(stories) {
			return fmt.Errorf("there are only %d stories", len(stories))
		}
		return p.store.ChangeActiveStory(stories[cmd.index].ID)
	case cmdAdd:
		_, err := p.gw.AddStory(ctx, cmd.title, cmd.desc)
		return err
	case cmdRefresh:
		p.requestRefresh()
	case cmdHelp:
		p.out.line("%s", usage)
	}
	return nil
}
