package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orris-inc/trafficstat/internal/interfaces/http/handlers"
	"github.com/orris-inc/trafficstat/internal/interfaces/http/middleware"
	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

// Router serves the operational endpoints of the worker.
type Router struct {
	engine        *gin.Engine
	healthHandler *handlers.HealthHandler
	gatherer      prometheus.Gatherer
	logger        logger.Interface
}

func NewRouter(healthHandler *handlers.HealthHandler, gatherer prometheus.Gatherer, logger logger.Interface) *Router {
	return &Router{
		engine:        gin.New(),
		healthHandler: healthHandler,
		gatherer:      gatherer,
		logger:        logger,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))

	r.engine.GET("/healthz", r.healthHandler.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{
		ErrorLog: promErrorLogger{r.logger},
	})))
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// promErrorLogger adapts logger.Interface to promhttp.Logger.
type promErrorLogger struct {
	log logger.Interface
}

func (l promErrorLogger) Println(v ...any) {
	l.log.Errorw("metrics handler error", "error", v)
}
