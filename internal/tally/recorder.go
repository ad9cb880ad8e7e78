// Package tally contabiliza o resultado de cada chamada feita ao nacos,
// no prometheus e opcionalmente num registro de execução no Redis.
package tally

import "time"

// Recorder recebe o resultado de cada operação. As implementações devem ser
// seguras para uso concorrente e nunca bloquear por muito tempo.
type Recorder interface {
	Login(ok bool)
	Registration(port uint32, ok bool)
	Heartbeat(port uint32, ok bool, elapsed time.Duration)
	HeartbeatSkipped(port uint32)
	Armed(count int)
}

type prometheusRecorder struct{}

// NewPrometheusRecorder retorna um Recorder que atualiza as métricas do pacote.
func NewPrometheusRecorder() Recorder {
	RegisterMetrics()
	return prometheusRecorder{}
}

func (prometheusRecorder) Login(ok bool) {
	loginsTotal.WithLabelValues(result(ok)).Inc()
}

func (prometheusRecorder) Registration(_ uint32, ok bool) {
	registrationsTotal.WithLabelValues(result(ok)).Inc()
}

func (prometheusRecorder) Heartbeat(_ uint32, ok bool, elapsed time.Duration) {
	heartbeatsTotal.WithLabelValues(result(ok)).Inc()
	heartbeatDuration.Observe(elapsed.Seconds())
}

func (prometheusRecorder) HeartbeatSkipped(_ uint32) {
	heartbeatsTotal.WithLabelValues(resultSkipped).Inc()
}

func (prometheusRecorder) Armed(count int) {
	armedInstances.Set(float64(count))
}

type multiRecorder []Recorder

// Multi repassa cada evento para todos os recorders, na ordem.
func Multi(recorders ...Recorder) Recorder {
	out := make(multiRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multiRecorder) Login(ok bool) {
	for _, r := range m {
		r.Login(ok)
	}
}

func (m multiRecorder) Registration(port uint32, ok bool) {
	for _, r := range m {
		r.Registration(port, ok)
	}
}

func (m multiRecorder) Heartbeat(port uint32, ok bool, elapsed time.Duration) {
	for _, r := range m {
		r.Heartbeat(port, ok, elapsed)
	}
}

func (m multiRecorder) HeartbeatSkipped(port uint32) {
	for _, r := range m {
		r.HeartbeatSkipped(port)
	}
}

func (m multiRecorder) Armed(count int) {
	for _, r := range m {
		r.Armed(count)
	}
}

// Nop descarta todos os eventos.
type Nop struct{}

func (Nop) Login(bool)                            {}
func (Nop) Registration(uint32, bool)             {}
func (Nop) Heartbeat(uint32, bool, time.Duration) {}
func (Nop) HeartbeatSkipped(uint32)               {}
func (Nop) Armed(int)                             {}
