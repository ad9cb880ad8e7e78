package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Server expõe as rotas de NewRouter enquanto a frota estiver rodando.
type Server struct {
	httpServer *http.Server
}

func New(addr string, view FleetView) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(view),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start sobe o servidor em background. Erros ao servir são apenas logados:
// a frota continua rodando sem as métricas.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("Servidor de métricas rodando em /metrics, /healthz e /instances")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", s.httpServer.Addr).Msg("Erro no servidor de métricas")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
