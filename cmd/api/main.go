package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/boutique-pos/internal/cache"
	"github.com/noah-isme/boutique-pos/internal/catalog"
	"github.com/noah-isme/boutique-pos/internal/common"
	"github.com/noah-isme/boutique-pos/internal/config"
	"github.com/noah-isme/boutique-pos/internal/db"
	"github.com/noah-isme/boutique-pos/internal/events"
	"github.com/noah-isme/boutique-pos/internal/health"
	"github.com/noah-isme/boutique-pos/internal/lock"
	"github.com/noah-isme/boutique-pos/internal/obs"
	"github.com/noah-isme/boutique-pos/internal/ratelimit"
	"github.com/noah-isme/boutique-pos/internal/report"
	"github.com/noah-isme/boutique-pos/internal/sale"
	"github.com/noah-isme/boutique-pos/internal/security"
	"github.com/noah-isme/boutique-pos/internal/ticket"
	"github.com/noah-isme/boutique-pos/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "boutique-pos",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSampleRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "boutique-pos"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	queries := db.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Queries:      queries,
		Cache:        cache.NewJSON(redisClient, cfg.CatalogSearchTTL),
		DefaultLimit: cfg.CatalogSearchLimit,
		Logger:       &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	bus := &events.Bus{
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := events.NewKafkaSink(events.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Logger:  &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise kafka sink")
		}
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Error().Err(err).Msg("close kafka sink")
			}
		}()
		bus.Sink = sink
	}

	saleService, err := sale.NewService(sale.Config{
		Catalog: catalogService,
		Buyers:  user.NewDirectory(user.DirectoryConfig{Queries: queries}),
		Store:   sale.NewPGStore(pool),
		Events:  bus,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise sale service")
	}
	saleHandler := sale.NewHandler(sale.HandlerConfig{Service: saleService, PublicBaseURL: cfg.PublicBaseURL})

	ticketHandler := &ticket.Handler{
		Sales: saleService,
		Renderer: ticket.NewRenderer(ticket.Shop{
			Name:    cfg.ShopName,
			Address: cfg.ShopAddress,
			Contact: cfg.ShopContact,
			Footer:  cfg.ShopFooter,
		}, time.Local),
		Logger: logger,
	}

	reportHandler := report.NewHandler(&report.Service{
		Q:      queries,
		Cache:  cache.NewJSON(redisClient, cfg.ReportCacheTTL),
		Lock:   lock.Locker{R: redisClient, Prefix: "lock:", MaxWait: 2 * time.Second},
		Logger: logger,
	})

	lookupLimiter, err := ratelimit.NewFixedWindow(redisClient, "rl:lookup")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise lookup rate limiter")
	}
	limiterErr := func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") }
	lookupLimit := ratelimit.Handler{
		Limiter: lookupLimiter,
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("lookup"), Window: cfg.LookupRateWindow, Max: cfg.LookupRateMax},
		OnError: limiterErr,
	}
	saleLimit := ratelimit.Handler{
		Limiter: ratelimit.SlidingWindow{Client: redisClient, Prefix: "rl:sale:"},
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("sale"), Window: cfg.SaleRateWindow, Max: cfg.SaleRateMax},
		OnError: limiterErr,
	}
	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsCSV), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders: []string{"Location", "X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.PprofUser, cfg.PprofPass))
	}

	healthHandler := health.Handler{Checker: health.Deps{DB: pool, Redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Group(func(lookup chi.Router) {
			lookup.Use(lookupLimit.Middleware)
			lookup.Get("/products/search", catalogHandler.SearchProducts)
			lookup.Get("/products/{id}/variants", catalogHandler.ProductVariants)
			lookup.Get("/variants/code/{code}", catalogHandler.VariantByCode)
		})

		v.Route("/sales", func(s chi.Router) {
			s.Post("/quote", saleHandler.Quote)
			s.With(saleLimit.Middleware, idem.Middleware).Post("/", saleHandler.Create)
			s.Get("/{id}", saleHandler.Get)
			s.Get("/{id}/ticket.pdf", ticketHandler.Ticket)
		})

		v.Route("/reports", func(rep chi.Router) {
			rep.Get("/sales", reportHandler.Sales)
			rep.Get("/top-products", reportHandler.TopProducts)
			rep.Get("/categories", reportHandler.Categories)
			rep.Get("/inventory", reportHandler.Inventory)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server exited unexpectedly")
			return
		}
	case <-sigCtx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, username, password string) http.Handler {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(username)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(password)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
