package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

type redisClient struct {
	client RedisClient
}

type RedisClientOptions func(*redisClient)

// WithCustomRedisClient permite passar um cliente Redis customizado
func WithCustomRedisClient(client RedisClient) RedisClientOptions {
	return func(r *redisClient) {
		r.client = client
	}
}

// Cria um cliente Redis com as opções padrão
// DialTimeout: 5s, ReadTimeout: 3s, WriteTimeout: 3s, PoolSize: 20, MinIdleConns: 2, MaxRetries: 1
func createRedisClient(addr string, opts ...RedisClientOptions) RedisClient {
	clientCreated := &redisClient{}
	for _, opt := range opts {
		if opt != nil {
			opt(clientCreated)
		}
	}
	if clientCreated.client != nil {
		return clientCreated.client
	}

	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   1,
	})
}

// InitRedisClient cria o cliente Redis e verifica a conexão com um Ping.
// Em caso de falha o cliente é fechado e o erro retornado.
func InitRedisClient(ctx context.Context, addr string, opts ...RedisClientOptions) (RedisClient, error) {
	client := createRedisClient(addr, opts...)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("erro ao conectar ao Redis em %s: %w", addr, err)
	}

	log.Debug().Str("redis_addr", addr).Msg("Conexão com Redis estabelecida com sucesso")
	log.Debug().Msgf("RedisClient PoolStats: %+v", client.PoolStats())
	return client, nil
}
