package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"

	"github.com/apiarium/apiary/session"
)

type sessionBackend string

const (
	// SessionBackendMemory keeps sessions in process memory; they do not
	// survive a restart
	SessionBackendMemory sessionBackend = "memory"
	// SessionBackendRedis keeps sessions in redis
	SessionBackendRedis sessionBackend = "redis"
)

type sessionsConf struct {
	Backend   sessionBackend          `yaml:"backend"`
	TTL       duration.DurationOption `yaml:"ttl"`
	RedisAddr string                  `yaml:"redis_addr"`
	Username  string                  `yaml:"username"`
	Password  string                  `yaml:"password"`
	RedisDB   int                     `yaml:"redis_db"`
}

func (c *sessionsConf) validate() error {
	switch c.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return errors.New("error in sessions conf: redis_addr must be specified")
		}
	default:
		return errors.Errorf("error in sessions conf: unknown backend '%s'", c.Backend)
	}
	if c.TTL.Duration() <= 0 {
		return errors.New("error in sessions conf: ttl must be positive")
	}
	return nil
}

var defaultSessionsConf = sessionsConf{
	Backend: SessionBackendMemory,
	TTL:     duration.DurationOption(12 * time.Hour),
}

// LoadSessionManager builds the session manager on the configured backend.
func LoadSessionManager(c sessionsConf) (*session.Manager, error) {
	var store session.Store
	switch c.Backend {
	case SessionBackendRedis:
		store = session.NewRedisStore(
			redis.NewClient(
				&redis.Options{
					Addr:     c.RedisAddr,
					Username: c.Username,
					Password: c.Password,
					DB:       c.RedisDB,
				},
			),
		)
		log.Info("Loaded redis session store")
	default:
		store = session.NewMemoryStore()
		log.Info("Loaded in-memory session store")
	}
	return session.NewManager(store, c.TTL.Duration()), nil
}
