package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/repolens/repolens/internal/apikey"
	apikeydomain "github.com/repolens/repolens/internal/apikey/domain"
	"github.com/repolens/repolens/internal/auth"
	authdomain "github.com/repolens/repolens/internal/auth/domain"
	"github.com/repolens/repolens/internal/auth/session"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/github"
	githubdomain "github.com/repolens/repolens/internal/github/domain"
	"github.com/repolens/repolens/internal/metering"
	meteringdomain "github.com/repolens/repolens/internal/metering/domain"
	"github.com/repolens/repolens/internal/observability"
	obsmiddleware "github.com/repolens/repolens/internal/observability/logger"
	obsmetrics "github.com/repolens/repolens/internal/observability/metrics"
	obstracing "github.com/repolens/repolens/internal/observability/tracing"
	"github.com/repolens/repolens/internal/summarizer"
	summarizerdomain "github.com/repolens/repolens/internal/summarizer/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	auth.Module,
	session.Module,
	apikey.Module,
	metering.Module,
	github.Module,
	summarizer.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	authsvc       authdomain.Service
	sessions      *session.Manager
	genID         *snowflake.Node
	apiKeySvc     apikeydomain.Service
	meteringSvc   meteringdomain.Service
	githubSvc     githubdomain.Service
	summarizerSvc summarizerdomain.Service
	loginLimiter  *rateLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Authsvc       authdomain.Service
	Sessions      *session.Manager
	GenID         *snowflake.Node
	APIKeySvc     apikeydomain.Service
	MeteringSvc   meteringdomain.Service
	GithubSvc     githubdomain.Service
	SummarizerSvc summarizerdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		authsvc:       p.Authsvc,
		sessions:      p.Sessions,
		genID:         p.GenID,
		apiKeySvc:     p.APIKeySvc,
		meteringSvc:   p.MeteringSvc,
		githubSvc:     p.GithubSvc,
		summarizerSvc: p.SummarizerSvc,
		loginLimiter:  newRateLimiter(5, 10*time.Minute),
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.Me)
}

func (s *Server) registerAPIRoutes() {
	keys := s.engine.Group("/api-keys", s.AuthRequired())
	{
		keys.GET("", s.ListAPIKeys)
		keys.POST("", s.CreateAPIKey)
		keys.GET("/:id", s.GetAPIKey)
		keys.PUT("/:id", s.UpdateAPIKey)
		keys.DELETE("/:id", s.DeleteAPIKey)
		keys.POST("/validate", s.ValidateAPIKey)
	}

	s.engine.POST("/github-summarizer", s.AuthRequired(), s.SummarizeRepository)
}
