package app

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/humanbelnik/storypoker/internal/config"
	http_init "github.com/humanbelnik/storypoker/internal/delivery/http/init"
	http_auth_middleware "github.com/humanbelnik/storypoker/internal/delivery/http/middleware/auth"
	http_room "github.com/humanbelnik/storypoker/internal/delivery/http/room"
	http_voting "github.com/humanbelnik/storypoker/internal/delivery/http/voting"
	ws_room "github.com/humanbelnik/storypoker/internal/delivery/ws/room"
	infra_pg_init "github.com/humanbelnik/storypoker/internal/infra/postgres/init"
	infra_postgres_room "github.com/humanbelnik/storypoker/internal/infra/postgres/room"
	infra_redis_init "github.com/humanbelnik/storypoker/internal/infra/redis/init"
	infra_redis_ticket "github.com/humanbelnik/storypoker/internal/infra/redis/ticket"
	infra_relay "github.com/humanbelnik/storypoker/internal/infra/relay"
	service_credential "github.com/humanbelnik/storypoker/internal/service/auth/credential"
	service_sweeper "github.com/humanbelnik/storypoker/internal/service/sweeper"
	usecase_room "github.com/humanbelnik/storypoker/internal/usecase/room"
	"github.com/jmoiron/sqlx"
)

// GoGateway serves the mutation API.
func GoGateway(cfg *config.Config) {
	logger := slog.Default().With(slog.String("component", "gateway"))

	storeConn := infra_pg_init.MustEstablishConn(cfg.Store)
	mustCreateSchema(storeConn)

	credentials := mustCredentials(cfg.Auth)
	relayClient := infra_relay.New(cfg.Relay.URL, cfg.Relay.PublishTimeout, infra_relay.WithLogger(logger))
	roomRepository := infra_postgres_room.New(storeConn)

	roomUC := usecase_room.New(roomRepository, relayClient, credentials,
		usecase_room.WithLogger(logger),
		usecase_room.WithPublishTimeout(cfg.Relay.PublishTimeout),
	)

	sweeper, err := service_sweeper.New(roomUC, cfg.Sweeper.Schedule, cfg.Sweeper.IdleAfter,
		service_sweeper.WithLogger(logger))
	if err != nil {
		log.Fatalf("failed to set up room sweeper: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	controllerPool := http_init.NewControllerPool(http_init.APIPrefix)
	controllerPool.Add(http_room.New(roomUC, http_room.WithLogger(logger)))
	controllerPool.Add(http_voting.New(roomUC, http_voting.WithLogger(logger)))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}

// GoRelay serves the event stream and the relay publish endpoints.
func GoRelay(cfg *config.Config) {
	const (
		ticketKey = "stream_ticket"
	)
	logger := slog.Default().With(slog.String("component", "relay"))

	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
	storeConn := infra_pg_init.MustEstablishConn(cfg.Store)
	mustCreateSchema(storeConn)

	credentials := mustCredentials(cfg.Auth)
	authMiddleware := http_auth_middleware.New(credentials)
	tickets := infra_redis_ticket.New(redisConn, ticketKey)
	votes := infra_postgres_room.New(storeConn)

	hub := ws_room.NewHub(ws_room.WithHubLogger(logger))
	go hub.Run(context.Background())

	controllerPool := http_init.NewControllerPool("")
	controllerPool.Add(ws_room.New(hub, tickets, votes, authMiddleware, cfg.Relay.TicketTTL, ws_room.WithLogger(logger)))

	controllerPool.Register()
	controllerPool.RunAll(cfg.Relay.Port)
}

func mustCreateSchema(db *sqlx.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := infra_pg_init.CreateSchema(ctx, db); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}
}

func mustCredentials(cfg config.Auth) *service_credential.Service {
	if err := cfg.Validate(); err != nil {
		log.Fatalf("refusing to start: %v", err)
	}
	return service_credential.New(&cfg.Secret)
}
