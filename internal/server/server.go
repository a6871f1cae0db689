package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/isaacmuchunu/poam-sub001/internal/circuitbreaker"
	"github.com/isaacmuchunu/poam-sub001/internal/config"
	"github.com/isaacmuchunu/poam-sub001/internal/handler"
	"github.com/isaacmuchunu/poam-sub001/internal/healthcheck"
	"github.com/isaacmuchunu/poam-sub001/internal/metrics"
	"github.com/isaacmuchunu/poam-sub001/internal/middleware"
	"github.com/isaacmuchunu/poam-sub001/internal/ratelimit"
	"github.com/isaacmuchunu/poam-sub001/internal/repository"
	"github.com/isaacmuchunu/poam-sub001/internal/service"
	"github.com/isaacmuchunu/poam-sub001/internal/storage"
	"github.com/isaacmuchunu/poam-sub001/internal/tenant"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const (
	HeaderWebhookSecret = "x-webhook-secret"
	HeaderAdminToken    = "x-admin-token"

	// cacheKey prefixes every cached read; the request URI is appended per request.
	cacheKey = "api"
)

var Version = "dev"

type Server struct {
	router     *gin.Engine
	config     *config.Config
	postgres   *storage.Postgres
	store      ratelimit.Store
	enforcer   *ratelimit.Enforcer
	breaker    *circuitbreaker.CircuitBreaker
	checker    *healthcheck.Checker
	audit      *service.AuditWriter
	metrics    *metrics.Recorder
	httpServer *http.Server
}

// New wires the quota layer, tenant isolation and the POA&M API onto one
// router. The store is shared by rate limiting, response caching and the
// tier cache.
func New(cfg *config.Config, postgres *storage.Postgres, store ratelimit.Store) (*Server, error) {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tiers, err := ratelimit.TierTableFromConfig(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("server: trusted proxies: %w", err)
	}

	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:        "quota-store",
		MaxFailures: cfg.Store.BreakerFailures,
		Cooldown:    cfg.Store.BreakerCooldown,
	})
	enforcer := ratelimit.NewEnforcer(store, tiers,
		ratelimit.WithTimeout(cfg.Store.Timeout),
		ratelimit.WithBreaker(breaker),
		ratelimit.WithObserver(recorder),
	)

	auditWriter := service.NewAuditWriter(repository.NewAuditRepository(postgres), 0, 0, 0)
	auditWriter.Start()

	checker := healthcheck.NewChecker(healthcheck.Config{},
		healthcheck.Probe{Name: "database", Critical: true, Check: postgres.Ping},
		healthcheck.Probe{Name: "quota-store", Check: store.Ping},
	)

	s := &Server{
		router:   router,
		config:   cfg,
		postgres: postgres,
		store:    store,
		enforcer: enforcer,
		breaker:  breaker,
		checker:  checker,
		audit:    auditWriter,
		metrics:  recorder,
	}

	s.setupMiddleware()
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.Metrics(s.metrics))
}

func (s *Server) tierLookup() (ratelimit.TierLookup, error) {
	fallback, err := ratelimit.ParseTier(s.config.RateLimit.DefaultTier)
	if err != nil {
		return nil, err
	}

	switch s.config.RateLimit.TierLookup {
	case "organization":
		orgs := repository.NewOrganizationRepository(s.postgres)
		return ratelimit.NewOrganizationTiers(orgs, s.enforcer.Bounded(), fallback), nil
	default:
		return ratelimit.StaticTiers{Default: fallback}, nil
	}
}

func (s *Server) setupRoutes() error {
	lookup, err := s.tierLookup()
	if err != nil {
		return err
	}

	cached, err := middleware.CacheResponse(s.enforcer, ratelimit.CacheOptions{
		TTLSeconds: s.config.Cache.TTLSeconds,
		CacheKey:   cacheKey,
	})
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	systemHandler := handler.NewSystemHandler(s.checker, s.breaker, Version)
	s.router.GET("/health", systemHandler.Health)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	admin := s.router.Group("/admin", middleware.RequireAdminToken(HeaderAdminToken, s.config.Admin.TokenHash))
	{
		admin.GET("/quota-store", systemHandler.BreakerStatus)
		admin.POST("/quota-store/reset", systemHandler.ResetBreaker)
	}

	orgs := repository.NewOrganizationRepository(s.postgres)
	provisioning := service.NewProvisioningService(orgs, s.postgres)
	webhookHandler := handler.NewWebhookHandler(provisioning)
	s.router.POST("/webhooks/organizations",
		middleware.RequireSecret(HeaderWebhookSecret, s.config.Webhook.Secret),
		webhookHandler.OrganizationEvents,
	)

	chain := []gin.HandlerFunc{}
	if s.config.Auth.JWTSecret != "" {
		validator := service.NewTokenValidator(s.config.Auth.JWTSecret, s.config.Auth.Issuer, 0)
		chain = append(chain, middleware.Identity(validator))
	}
	chain = append(chain,
		middleware.QuotaLimit(s.enforcer, lookup),
		middleware.RequireTenant(),
		middleware.AuditTrail(s.audit),
	)

	postgres := s.postgres
	access := tenant.NewAccess(func(namespace string) handler.POAMStore {
		return service.NewPOAMService(repository.NewPOAMRepository(postgres.Scoped(namespace)))
	})
	poamHandler := handler.NewPOAMHandler(access)
	auditHandler := handler.NewAuditHandler(repository.NewAuditRepository(s.postgres))

	api := s.router.Group("/api", chain...)
	{
		api.GET("/poam-items", cached, poamHandler.ListItems)
		api.POST("/poam-items", poamHandler.CreateItem)
		api.GET("/poam-items/:id", cached, poamHandler.GetItem)
		api.PATCH("/poam-items/:id", poamHandler.UpdateItem)
		api.DELETE("/poam-items/:id", poamHandler.DeleteItem)

		api.GET("/systems", cached, poamHandler.ListSystems)
		api.POST("/systems", poamHandler.CreateSystem)

		api.GET("/audit-logs", auditHandler.List)
	}

	return nil
}

func (s *Server) Run(addr string) error {
	s.checker.Start()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Str("environment", s.config.Server.Environment).
		Str("store", s.config.Store.Backend).
		Msg("Starting POA&M API")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then drains the audit queue.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down server...")

	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.checker.Stop()
	if err := s.audit.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush audit log: %w", err))
	}

	return errors.Join(errs...)
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
