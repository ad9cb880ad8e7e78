package tally

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK      = "ok"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)

var (
	registerOnce = sync.Once{}

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nacos_perf_logins_total",
			Help: "Total de tentativas de login no nacos",
		},
		[]string{"result"},
	)
	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nacos_perf_registrations_total",
			Help: "Total de registros de instâncias mock",
		},
		[]string{"result"},
	)
	heartbeatsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nacos_perf_heartbeats_total",
			Help: "Total de heartbeats enviados, falhados ou pulados",
		},
		[]string{"result"},
	)
	heartbeatDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nacos_perf_heartbeat_duration_seconds",
			Help:    "Duração das chamadas de heartbeat",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
	armedInstances = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nacos_perf_armed_instances",
			Help: "Instâncias mock com heartbeat agendado",
		},
	)
)

// RegisterMetrics registra os coletores no registry padrão do prometheus.
// Pode ser chamado mais de uma vez.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			loginsTotal,
			registrationsTotal,
			heartbeatsTotal,
			heartbeatDuration,
			armedInstances,
		)
	})
}

func result(ok bool) string {
	if ok {
		return resultOK
	}
	return resultFailed
}
