// Package server exposes the billing pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cloudkhata/cloudkhata/internal/config"
	invoicedomain "github.com/cloudkhata/cloudkhata/internal/invoice/domain"
	taxdomain "github.com/cloudkhata/cloudkhata/internal/tax/domain"
	usagedomain "github.com/cloudkhata/cloudkhata/internal/usage/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, registry *prometheus.Registry) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.Engine(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Log        *zap.Logger
	GenID      *snowflake.Node
	Tracker    usagedomain.Tracker
	Generator  invoicedomain.Generator
	Calculator taxdomain.Calculator
}

type Server struct {
	engine     *gin.Engine
	log        *zap.Logger
	genID      *snowflake.Node
	tracker    usagedomain.Tracker
	generator  invoicedomain.Generator
	calculator taxdomain.Calculator
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		log:        p.Log.Named("http"),
		genID:      p.GenID,
		tracker:    p.Tracker,
		generator:  p.Generator,
		calculator: p.Calculator,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	accounts := v1.Group("/accounts")
	{
		accounts.POST("/:id/usage/track", s.TrackUsage)
		accounts.GET("/:id/usage/summary", s.UsageSummary)
	}

	invoices := v1.Group("/invoices")
	{
		invoices.POST("/generate", s.GenerateInvoice)
		invoices.GET("/:id", s.GetInvoice)
		invoices.POST("/:id/finalize", s.FinalizeInvoice)
		invoices.POST("/:id/pay", s.PayInvoice)
		invoices.POST("/:id/overdue", s.OverdueInvoice)
	}

	tax := v1.Group("/tax")
	{
		tax.POST("/calculate", s.CalculateTax)
		tax.GET("/gstin/:gstin", s.ValidateGSTIN)
	}
}
