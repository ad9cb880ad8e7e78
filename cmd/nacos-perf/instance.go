package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yanickxia/nacos-perf-utils/internal/clients"
	"github.com/yanickxia/nacos-perf-utils/internal/config"
	"github.com/yanickxia/nacos-perf-utils/internal/fleet"
	"github.com/yanickxia/nacos-perf-utils/internal/nacos"
	"github.com/yanickxia/nacos-perf-utils/internal/server"
	"github.com/yanickxia/nacos-perf-utils/internal/tally"
)

const shutdownTimeout = 5 * time.Second

type instanceOptions struct {
	cfg     config.Config
	logFile string
	logDir  string
	debug   bool
}

func newInstanceOptions() *instanceOptions {
	return &instanceOptions{cfg: config.Default()}
}

func newInstanceCmd(opts *instanceOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance <nacos-addr>",
		Short: "Registra instâncias mock no nacos e mantém os heartbeats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.cfg.ServerAddr = args[0]
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runInstance(ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.Uint32VarP(&opts.cfg.StartPort, "start-port", "p", config.DefaultStartPort, "Porta base; as instâncias usam start-port+1 até start-port+n")
	flags.Uint32VarP(&opts.cfg.InstanceNum, "instance-number", "n", config.DefaultInstanceNum, "Quantidade de instâncias mock")
	flags.StringVarP(&opts.cfg.Username, "username", "u", os.Getenv("NACOS_USERNAME"), "Usuário do nacos (vazio desativa o login)")
	flags.StringVar(&opts.cfg.Password, "password", os.Getenv("NACOS_PASSWORD"), "Senha do nacos")
	flags.StringVar(&opts.cfg.Namespace, "namespace", "", "Namespace (namespaceId) das instâncias")
	flags.StringVar(&opts.cfg.GroupName, "group", "", "Grupo (groupName) das instâncias")
	flags.DurationVar(&opts.cfg.HeartbeatInterval, "interval", config.DefaultHeartbeatInterval, "Intervalo entre heartbeats de cada instância")
	flags.DurationVar(&opts.cfg.RequestTimeout, "timeout", config.DefaultRequestTimeout, "Timeout de cada requisição ao nacos")
	flags.BoolVar(&opts.cfg.SkipUnregistered, "skip-unregistered", false, "Não envia heartbeat para instâncias cujo registro falhou")
	flags.StringVar(&opts.cfg.MetricsAddr, "metrics-addr", os.Getenv("METRICS_ADDR"), "Endereço do servidor de métricas (ex: :9100)")
	flags.StringVar(&opts.cfg.RedisAddr, "redis-addr", os.Getenv("REDIS_ADDR"), "Endereço do Redis para o registro da execução")
	flags.StringVar(&opts.logFile, "log-file", "nacos-perf.log", "Nome do arquivo de log")
	flags.StringVar(&opts.logDir, "log-dir", ".", "Diretório raiz dos logs")
	flags.BoolVar(&opts.debug, "debug", false, "Mostra logs de debug no console")

	return cmd
}

func runInstance(ctx context.Context, opts *instanceOptions) error {
	logFile, _, err := clients.InitLog(opts.logFile, opts.logDir, opts.debug)
	if err != nil {
		return err
	}
	defer logFile.Close()

	cfg := opts.cfg
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Configuração inválida")
		return err
	}

	runID := uuid.NewString()
	log.Info().
		Str("run_id", runID).
		Str("server", cfg.ServerAddr).
		Uint32("start_port", cfg.StartPort).
		Uint32("instances", cfg.InstanceNum).
		Msg("Iniciando execução")

	client := nacos.NewClient(cfg.ServerAddr,
		nacos.WithCustomHTTPClient(clients.NewHTTPClient(cfg.RequestTimeout)),
		nacos.WithNamespace(cfg.Namespace),
		nacos.WithGroupName(cfg.GroupName),
	)

	latency := tally.NewLatency()
	recorder := tally.Multi(tally.NewPrometheusRecorder(), latency)
	if cfg.RedisAddr != "" {
		redisClient, err := clients.InitRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn().Err(err).Msg("Redis indisponível, seguindo sem o registro da execução")
		} else {
			defer redisClient.Close()
			recorder = tally.Multi(recorder, tally.NewLedger(redisClient, runID, cfg.ServerAddr))
		}
	}

	scheduler := fleet.New(cfg, client,
		fleet.WithRecorder(recorder),
		fleet.WithInterval(cfg.HeartbeatInterval),
	)

	if cfg.MetricsAddr != "" {
		srv := server.New(cfg.MetricsAddr, scheduler)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Erro ao parar o servidor de métricas")
			}
		}()
	}

	if err := scheduler.Run(ctx); err != nil {
		return err
	}
	latency.LogSummary()
	log.Info().Str("run_id", runID).Msg("Execução finalizada")
	return nil
}
