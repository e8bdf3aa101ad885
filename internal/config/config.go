package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

type Relay struct {
	Port           string
	URL            string
	PublishTimeout time.Duration
	TicketTTL      time.Duration
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type Store struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string
}

type Auth struct {
	Secret string
}

var ErrMissingSecret = errors.New("AUTH_SECRET is not set")

// Validate refuses to run with no credential secret; there is no default one.
func (a Auth) Validate() error {
	if a.Secret == "" {
		return ErrMissingSecret
	}
	return nil
}

type Sweeper struct {
	Schedule  string
	IdleAfter time.Duration
}

type Config struct {
	HTTP    HTTPServer
	Relay   Relay
	Redis   RedisCache
	Store   Store
	Auth    Auth
	Sweeper Sweeper
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() *Config {
	cfg := &Config{
		HTTP:    *newHTTP(),
		Relay:   *newRelay(),
		Redis:   *newRedis(),
		Store:   *newStore(),
		Auth:    *newAuth(),
		Sweeper: *newSweeper(),
	}

	log.Printf("%s backend config : http=%+v relay=%+v store=%s sweeper=%+v\n",
		logtag, cfg.HTTP, cfg.Relay, cfg.Store.Driver, cfg.Sweeper)
	return cfg
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "localhost"),
	}
}

func newRelay() *Relay {
	return &Relay{
		Port:           getenv("RELAY_PORT", "3001"),
		URL:            getenv("RELAY_URL", "http://localhost:3001"),
		PublishTimeout: getenvDuration("RELAY_PUBLISH_TIMEOUT", 2*time.Second),
		TicketTTL:      getenvDuration("RELAY_TICKET_TTL", 10*time.Second),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", "shared"),
		DB:       getenvInt("REDIS_DB", 0),
	}
}

func newStore() *Store {
	return &Store{
		Driver:   getenv("DB_DRIVER", "postgres"),
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "storypoker"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
		Path:     getenv("DB_PATH", "storypoker.db"),
	}
}

func newAuth() *Auth {
	return &Auth{
		Secret: getenvSecret("AUTH_SECRET"),
	}
}

func newSweeper() *Sweeper {
	return &Sweeper{
		Schedule:  getenv("SWEEPER_SCHEDULE", "@every 10m"),
		IdleAfter: getenvDuration("SWEEPER_IDLE_AFTER", 12*time.Hour),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}

func getenvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getenv(key, defaultValue.String())
	d, err := time.ParseDuration(raw)
	if err != nil {
		fmt.Printf("%s %s = %q is not a duration. Using default value %s\n", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getenvInt(key string, defaultValue int) int {
	raw := getenv(key, strconv.Itoa(defaultValue))
	n, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Printf("%s %s = %q is not a number. Using default value %d\n", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return n
}

// getenvSecret reads a value that must never show up in logs.
func getenvSecret(key string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined\n", logtag, key)
		return ""
	}
	fmt.Printf("%s %s is set\n", logtag, key)
	return val
}
