package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

// HTTPClient é o mínimo que o cliente do registro precisa de um *http.Client.
// Existe para permitir mocks nos testes.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type RedisClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
	PoolStats() *redis.PoolStats
	Close() error
}
