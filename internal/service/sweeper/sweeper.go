package service_sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Deactivator interface {
	DeactivateIdleRooms(ctx context.Context, idle time.Duration) (int64, error)
}

// Sweeper periodically marks rooms without activity as inactive.
type Sweeper struct {
	deactivator Deactivator
	idle        time.Duration
	timeout     time.Duration
	cron        *cron.Cron
	logger      *slog.Logger
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Sweeper) {
		s.timeout = d
	}
}

func New(
	deactivator Deactivator,
	schedule string,
	idle time.Duration,
	opts ...Option,
) (*Sweeper, error) {
	s := &Sweeper{
		deactivator: deactivator,
		idle:        idle,
		timeout:     time.Minute,
		cron:        cron.New(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if idle <= 0 {
		return nil, fmt.Errorf("sweeper idle period must be positive, got %s", idle)
	}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return nil, fmt.Errorf("parse sweeper schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.logger.Info("room sweeper started", slog.Duration("idle_after", s.idle))
	s.cron.Start()
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("room sweeper stopped")
}

func (s *Sweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.deactivator.DeactivateIdleRooms(ctx, s.idle)
	if err != nil {
		s.logger.Error("failed to deactivate idle rooms", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		s.logger.Info("deactivated idle rooms", slog.Int64("rooms", n))
	}
}
