package tally

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yanickxia/nacos-perf-utils/internal/clients"
)

const (
	ledgerPrefix   = "nacos-perf:run"
	ledgerTTL      = 24 * time.Hour
	ledgerDeadline = 2 * time.Second
)

type ledger struct {
	redisClient clients.RedisClient
	runID       string
	ttl         time.Duration
}

// NewLedger cria um Recorder que grava o resultado de cada instância no Redis,
// sob nacos-perf:run:<runID>. As chaves expiram em 24h e nunca são lidas de
// volta por esta ferramenta. Falhas no Redis são apenas logadas.
func NewLedger(redisClient clients.RedisClient, runID, serverAddr string) Recorder {
	l := &ledger{
		redisClient: redisClient,
		runID:       runID,
		ttl:         ledgerTTL,
	}
	l.set(l.metaKey(), serverAddr)
	return l
}

func (l *ledger) metaKey() string {
	return fmt.Sprintf("%s:%s:meta", ledgerPrefix, l.runID)
}

func (l *ledger) portKey(port uint32, field string) string {
	return fmt.Sprintf("%s:%s:port:%d:%s", ledgerPrefix, l.runID, port, field)
}

func (l *ledger) set(key string, value interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), ledgerDeadline)
	defer cancel()
	if err := l.redisClient.Set(ctx, key, value, l.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Erro ao gravar no Redis")
	}
}

func (l *ledger) incr(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), ledgerDeadline)
	defer cancel()
	if err := l.redisClient.Incr(ctx, key).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Erro ao incrementar no Redis")
		return
	}
	if err := l.redisClient.Expire(ctx, key, l.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Erro ao definir expiração no Redis")
	}
}

func (l *ledger) Login(bool) {}

func (l *ledger) Registration(port uint32, ok bool) {
	value := "0"
	if ok {
		value = "1"
	}
	l.set(l.portKey(port, "registered"), value)
}

func (l *ledger) Heartbeat(port uint32, ok bool, _ time.Duration) {
	if ok {
		l.incr(l.portKey(port, "beats_ok"))
		return
	}
	l.incr(l.portKey(port, "beats_failed"))
}

func (l *ledger) HeartbeatSkipped(port uint32) {
	l.incr(l.portKey(port, "beats_skipped"))
}

func (l *ledger) Armed(count int) {
	l.set(fmt.Sprintf("%s:%s:armed", ledgerPrefix, l.runID), count)
}
