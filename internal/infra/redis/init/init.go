package infra_redis_init

import (
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis"
	"github.com/humanbelnik/storypoker/internal/config"
)

const (
	pingAttempts = 5
	pingInterval = time.Second
)

// MustEstablishConn waits for redis to answer a ping, retrying a few times since
// the relay may come up first.
func MustEstablishConn(cfg config.RedisCache) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 3 * time.Second,
	})

	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = client.Ping().Err(); err == nil {
			return client
		}
		log.Printf("redis ping failed (attempt %d/%d): %v", attempt, pingAttempts, err)
		time.Sleep(pingInterval)
	}

	log.Fatalf("redis unreachable at %s: %v", client.Options().Addr, err)
	return nil
}
