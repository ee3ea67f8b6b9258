package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/config"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/database"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/feed"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geocoding"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/handlers"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/metrics"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/middleware"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/repository"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/services"
)

const (
	shutdownTimeout   = 30 * time.Second
	rateLimitPruneInt = 5 * time.Minute
)

func main() {
	config.LoadDotEnv(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	log.Info("Starting Thermo House API", map[string]interface{}{
		"version":       handlers.APIVersion,
		"environment":   cfg.Server.Env,
		"port":          cfg.Server.Port,
		"leads_backend": cfg.Leads.Backend,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Server.MigrateOnStart {
		if err := database.Migrate(ctx, cfg.Database.DSN(), log); err != nil {
			log.Fatal("Failed to run migrations", err, nil)
		}
	}

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	m := metrics.New()
	m.RegisterPool(func() (int32, int32, int32) {
		s := db.Stats()
		return s.Acquired, s.Idle, s.Total
	})
	hub := feed.NewHub(log)
	hub.OnDrop(m.FeedDropped)
	defer hub.Close()

	store, err := leadStore(ctx, cfg, db, hub, log)
	if err != nil {
		log.Fatal("Failed to set up lead store", err, map[string]interface{}{
			"backend": cfg.Leads.Backend,
		})
	}

	var provider geocoding.Provider
	if gc := geocoding.NewGoogleClient(cfg.Geocoding.APIKey, cfg.Geocoding.Region, cfg.Geocoding.Language); gc != nil {
		provider = gc
	} else {
		log.Warn("GOOGLE_MAPS_API_KEY not set, address lookup disabled", nil)
	}
	resolver := geocoding.NewResolver(provider, log)

	quoteService := services.NewQuoteService(
		repository.NewProductRepository(db),
		repository.NewLocationRepository(db),
		cfg.Pricing.BaseCity,
		m,
		log,
	)
	areaService := services.NewAreaService(resolver, quoteService, m, log)
	leadService := services.NewLeadService(store, quoteService, m, log)
	purger := services.NewPurger(store, cfg.Purge.PassphraseHash, cfg.Purge.TokenTTL, log)
	if !purger.Enabled() {
		log.Warn("PURGE_PASSPHRASE_HASH not set, bulk delete disabled", nil)
	}

	registry := leads.NewRegistry(leadService, hub, log)
	registry.OnChange(m.SetLiveViews)
	defer registry.CloseAll()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	go pruneVisitors(ctx, limiter, log)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// RequestID -> Logger -> Recovery -> CORS -> Metrics
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))
	if cfg.Metrics.Enabled {
		router.Use(m.Middleware())
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	handlers.RegisterRoutes(router, handlers.Routes{
		Health:      handlers.NewHealthHandler(cfg.Server.Env, map[string]handlers.Pinger{"database": db}),
		Area:        handlers.NewAreaHandler(areaService),
		Catalog:     handlers.NewCatalogHandler(quoteService),
		Leads:       handlers.NewLeadHandler(leadService, registry, purger),
		SubmitLimit: limiter.Middleware(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	// Live views end first so open lead streams return before Shutdown waits
	// on them.
	registry.CloseAll()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// leadStore builds the configured lead store and starts its change feed.
// Postgres publishes through its notify trigger; DynamoDB has no change
// stream here, so its mutations publish directly to the hub.
func leadStore(ctx context.Context, cfg *config.Config, db *database.Database, hub *feed.Hub, log *logger.Logger) (leads.Store, error) {
	switch cfg.Leads.Backend {
	case config.BackendDynamoDB:
		client, err := database.NewDynamoDBClient(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		log.Info("Using DynamoDB lead store", map[string]interface{}{
			"table":    cfg.Leads.DynamoTable,
			"region":   cfg.AWS.Region,
			"endpoint": cfg.AWS.Endpoint,
		})
		return leads.NewPublishingStore(repository.NewLeadDynamoRepository(client, cfg.Leads.DynamoTable), hub), nil

	default:
		listener := feed.NewListener(db.Pool, hub, log)
		go func() {
			if err := listener.Run(ctx); err != nil {
				log.Error("Lead change listener stopped", err, nil)
			}
		}()
		return repository.NewLeadRepository(db), nil
	}
}

func pruneVisitors(ctx context.Context, limiter *middleware.RateLimiter, log *logger.Logger) {
	ticker := time.NewTicker(rateLimitPruneInt)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Prune(); n > 0 {
				log.Debug("Pruned idle rate limit visitors", map[string]interface{}{
					"pruned":    n,
					"remaining": limiter.Len(),
				})
			}
		}
	}
}
