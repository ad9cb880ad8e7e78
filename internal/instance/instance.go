package instance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yanickxia/nacos-perf-utils/internal/nacos"
	"github.com/yanickxia/nacos-perf-utils/internal/tally"
)

// Registry é a parte do nacos.Client usada por uma instância mock.
type Registry interface {
	RegisterInstance(ctx context.Context, port uint32, serviceName string, token nacos.Token) error
	Heartbeat(ctx context.Context, port uint32, serviceName string, token nacos.Token) error
	ServerAddr() string
}

// Status é uma cópia dos contadores de uma instância.
type Status struct {
	Port         uint32 `json:"port"`
	ServiceName  string `json:"service"`
	Registered   bool   `json:"registered"`
	BeatsOK      int64  `json:"beats_ok"`
	BeatsFailed  int64  `json:"beats_failed"`
	BeatsSkipped int64  `json:"beats_skipped"`
}

// MockInstance representa um endpoint simulado. Porta, nome e token não mudam
// depois da criação; apenas os contadores são atualizados.
type MockInstance struct {
	port        uint32
	serviceName string
	token       nacos.Token
	registry    Registry
	recorder    tally.Recorder

	registered   atomic.Bool
	inFlight     atomic.Bool
	beatsOK      atomic.Int64
	beatsFailed  atomic.Int64
	beatsSkipped atomic.Int64
}

// ServiceName deriva o nome do serviço a partir da porta.
func ServiceName(port uint32) string {
	return fmt.Sprintf("mock-%d", port)
}

func New(port uint32, token nacos.Token, registry Registry, recorder tally.Recorder) *MockInstance {
	if recorder == nil {
		recorder = tally.Nop{}
	}
	return &MockInstance{
		port:        port,
		serviceName: ServiceName(port),
		token:       token,
		registry:    registry,
		recorder:    recorder,
	}
}

func (m *MockInstance) Port() uint32 {
	return m.port
}

func (m *MockInstance) ServiceName() string {
	return m.serviceName
}

// Register registra a instância no nacos e loga o resultado.
func (m *MockInstance) Register(ctx context.Context) error {
	err := m.registry.RegisterInstance(ctx, m.port, m.serviceName, m.token)
	m.recorder.Registration(m.port, err == nil)
	if err != nil {
		log.Warn().Err(err).
			Uint32("port", m.port).
			Str("service", m.serviceName).
			Str("server", m.registry.ServerAddr()).
			Msg("Falha ao registrar instância")
		return err
	}
	m.registered.Store(true)
	log.Info().
		Uint32("port", m.port).
		Str("service", m.serviceName).
		Msg("Instância registrada com sucesso")
	return nil
}

// SendHeartbeat envia um beat e loga o resultado. Não guarda estado entre
// chamadas além dos contadores. Um beat interrompido pelo cancelamento de ctx
// é abandonado: não conta como falha nem como sucesso.
func (m *MockInstance) SendHeartbeat(ctx context.Context) error {
	start := time.Now()
	err := m.registry.Heartbeat(ctx, m.port, m.serviceName, m.token)
	elapsed := time.Since(start)
	if err != nil && ctx.Err() != nil {
		log.Debug().Err(err).
			Uint32("port", m.port).
			Str("service", m.serviceName).
			Msg("Heartbeat abandonado no encerramento")
		return err
	}
	m.recorder.Heartbeat(m.port, err == nil, elapsed)
	if err != nil {
		m.beatsFailed.Add(1)
		log.Warn().Err(err).
			Str("server", m.registry.ServerAddr()).
			Uint32("port", m.port).
			Str("service", m.serviceName).
			Msg("Falha no heartbeat")
		return err
	}
	m.beatsOK.Add(1)
	log.Info().
		Str("server", m.registry.ServerAddr()).
		Uint32("port", m.port).
		Str("service", m.serviceName).
		Dur("elapsed", elapsed).
		Msg("Heartbeat enviado")
	return nil
}

// TryHeartbeat envia o beat a menos que o anterior ainda esteja em andamento.
// Retorna false quando o tick foi pulado.
func (m *MockInstance) TryHeartbeat(ctx context.Context) bool {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.beatsSkipped.Add(1)
		m.recorder.HeartbeatSkipped(m.port)
		log.Warn().
			Uint32("port", m.port).
			Str("service", m.serviceName).
			Msg("Heartbeat anterior ainda em andamento, tick pulado")
		return false
	}
	defer m.inFlight.Store(false)
	_ = m.SendHeartbeat(ctx)
	return true
}

// Registered informa se o último registro foi aceito pelo nacos.
func (m *MockInstance) Registered() bool {
	return m.registered.Load()
}

func (m *MockInstance) Snapshot() Status {
	return Status{
		Port:         m.port,
		ServiceName:  m.serviceName,
		Registered:   m.registered.Load(),
		BeatsOK:      m.beatsOK.Load(),
		BeatsFailed:  m.beatsFailed.Load(),
		BeatsSkipped: m.beatsSkipped.Load(),
	}
}
