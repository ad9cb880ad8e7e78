// Package fleet registra as instâncias mock e mantém cada uma viva com
// heartbeats periódicos até o contexto ser cancelado.
package fleet

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yanickxia/nacos-perf-utils/internal/config"
	"github.com/yanickxia/nacos-perf-utils/internal/instance"
	"github.com/yanickxia/nacos-perf-utils/internal/nacos"
	"github.com/yanickxia/nacos-perf-utils/internal/tally"
)

type State int32

const (
	Idle State = iota
	Provisioning
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Provisioning:
		return "provisioning"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Client é o que o Scheduler precisa do nacos.Client.
type Client interface {
	nacos.Authenticator
	instance.Registry
}

type Scheduler struct {
	cfg      config.Config
	client   Client
	recorder tally.Recorder
	interval time.Duration

	state atomic.Int32

	mu        sync.RWMutex
	instances []*instance.MockInstance

	wg sync.WaitGroup
}

type Option func(*Scheduler)

func WithRecorder(recorder tally.Recorder) Option {
	return func(s *Scheduler) {
		s.recorder = recorder
	}
}

// WithInterval troca o período dos heartbeats (padrão: cfg.HeartbeatInterval).
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = interval
	}
}

func New(cfg config.Config, client Client, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		client:   client,
		recorder: tally.Nop{},
		interval: cfg.HeartbeatInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = config.DefaultHeartbeatInterval
	}
	return s
}

// Ports devolve as portas das instâncias: startPort+num até startPort+1.
func Ports(startPort, num uint32) []uint32 {
	ports := make([]uint32, 0, num)
	for offset := num; offset > 0; offset-- {
		ports = append(ports, startPort+offset)
	}
	return ports
}

// Run faz o login (se configurado), registra as instâncias uma a uma e
// agenda os heartbeats. Bloqueia até ctx ser cancelado. Só retorna erro
// quando o login falha; nesse caso nenhuma instância é registrada.
func (s *Scheduler) Run(ctx context.Context) error {
	s.state.Store(int32(Provisioning))
	defer s.state.Store(int32(Stopped))

	token, err := nacos.MaybeLogin(ctx, s.client, s.cfg.Username, s.cfg.Password)
	if s.cfg.HasCredentials() {
		s.recorder.Login(err == nil)
	}
	if err != nil {
		log.Error().Err(err).Str("server", s.client.ServerAddr()).Msg("Falha no login, abortando")
		return err
	}
	if token != "" {
		log.Info().Str("server", s.client.ServerAddr()).Msg("Login realizado com sucesso")
	}

	scheduled := s.provision(ctx, token)
	if ctx.Err() != nil {
		log.Info().Msg("Cancelado durante o registro das instâncias")
		s.wg.Wait()
		return nil
	}

	s.state.Store(int32(Running))
	s.recorder.Armed(len(scheduled))
	for _, inst := range scheduled {
		s.wg.Add(1)
		go s.heartbeatLoop(ctx, inst)
	}
	log.Info().
		Int("instances", len(scheduled)).
		Dur("interval", s.interval).
		Msg("Heartbeats agendados")

	<-ctx.Done()
	log.Info().Msg("Parando heartbeats...")
	s.wg.Wait()
	s.recorder.Armed(0)
	log.Info().Msg("Todos os heartbeats pararam.")
	return nil
}

// provision registra as instâncias em sequência e devolve as que devem
// receber heartbeat.
func (s *Scheduler) provision(ctx context.Context, token nacos.Token) []*instance.MockInstance {
	ports := Ports(s.cfg.StartPort, s.cfg.InstanceNum)
	scheduled := make([]*instance.MockInstance, 0, len(ports))

	for _, port := range ports {
		if ctx.Err() != nil {
			break
		}
		inst := instance.New(port, token, s.client, s.recorder)
		s.mu.Lock()
		s.instances = append(s.instances, inst)
		s.mu.Unlock()

		if err := inst.Register(ctx); err != nil && s.cfg.SkipUnregistered {
			log.Warn().Uint32("port", port).Msg("Instância fora dos heartbeats por falha no registro")
			continue
		}
		scheduled = append(scheduled, inst)
	}
	return scheduled
}

func (s *Scheduler) heartbeatLoop(ctx context.Context, inst *instance.MockInstance) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				inst.TryHeartbeat(ctx)
			}()
		}
	}
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Instances devolve o estado de todas as instâncias criadas até agora.
func (s *Scheduler) Instances() []instance.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]instance.Status, 0, len(s.instances))
	for _, inst := range s.instances {
		out = append(out, inst.Snapshot())
	}
	return out
}
