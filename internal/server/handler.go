package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanickxia/nacos-perf-utils/internal/fleet"
	"github.com/yanickxia/nacos-perf-utils/internal/instance"
)

// FleetView é o que os handlers leem do fleet.Scheduler.
type FleetView interface {
	State() fleet.State
	Instances() []instance.Status
}

type fleetHandler struct {
	view FleetView
}

type FleetHandler interface {
	Health() gin.HandlerFunc
	Instances() gin.HandlerFunc
}

func NewFleetHandler(view FleetView) FleetHandler {
	return &fleetHandler{view: view}
}

// Health responde 200 quando os heartbeats estão agendados e 503 nos demais estados.
func (h *fleetHandler) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := h.view.State()
		status := http.StatusOK
		if state != fleet.Running {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"state": state.String()})
	}
}

// Instances lista as instâncias mock com seus contadores.
func (h *fleetHandler) Instances() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h.view.Instances())
	}
}

// NewRouter monta as rotas /metrics, /healthz e /instances.
func NewRouter(view FleetView) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	handler := NewFleetHandler(view)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", handler.Health())
	r.GET("/instances", handler.Instances())
	return r
}
