package tally

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"
)

// maxLatencySamples limita a memória em execuções longas; as amostras mais
// antigas são sobrescritas.
const maxLatencySamples = 100_000

// LatencySummary resume a duração dos heartbeats bem-sucedidos.
type LatencySummary struct {
	Count  int
	Failed int64
	Mean   time.Duration
	Median time.Duration
	Min    time.Duration
	Max    time.Duration
	P99    time.Duration
}

// Latency guarda as durações dos heartbeats para o resumo do fim da execução.
type Latency struct {
	mu      sync.Mutex
	samples []float64
	next    int
	failed  int64
}

func NewLatency() *Latency {
	return &Latency{samples: make([]float64, 0, 1024)}
}

func (l *Latency) Login(bool)                {}
func (l *Latency) Registration(uint32, bool) {}
func (l *Latency) HeartbeatSkipped(uint32)   {}
func (l *Latency) Armed(int)                 {}

func (l *Latency) Heartbeat(_ uint32, ok bool, elapsed time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !ok {
		l.failed++
		return
	}
	if len(l.samples) < maxLatencySamples {
		l.samples = append(l.samples, float64(elapsed))
		return
	}
	l.samples[l.next] = float64(elapsed)
	l.next = (l.next + 1) % maxLatencySamples
}

// Summary calcula o resumo. Sem amostras, só Failed é preenchido.
func (l *Latency) Summary() LatencySummary {
	l.mu.Lock()
	data := stats.Float64Data(append([]float64(nil), l.samples...))
	failed := l.failed
	l.mu.Unlock()

	summary := LatencySummary{Count: data.Len(), Failed: failed}
	if data.Len() == 0 {
		return summary
	}

	mean, _ := data.Mean()
	median, _ := data.Median()
	min, _ := data.Min()
	max, _ := data.Max()
	p99, _ := data.Percentile(99)

	summary.Mean = time.Duration(mean)
	summary.Median = time.Duration(median)
	summary.Min = time.Duration(min)
	summary.Max = time.Duration(max)
	summary.P99 = time.Duration(p99)
	return summary
}

func (l *Latency) LogSummary() {
	s := l.Summary()
	log.Info().
		Int("beats_ok", s.Count).
		Int64("beats_failed", s.Failed).
		Dur("mean", s.Mean).
		Dur("median", s.Median).
		Dur("min", s.Min).
		Dur("max", s.Max).
		Dur("p99", s.P99).
		Msg("Latência dos heartbeats")
}
