package main

import (
	"context"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dinequeue/internal/businessday"
	"dinequeue/internal/config"
	"dinequeue/internal/httpapi"
	"dinequeue/internal/hub"
	"dinequeue/internal/store"
	"dinequeue/internal/store/memory"
	"dinequeue/internal/store/postgres"
	"dinequeue/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("dinequeue")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	clock, err := businessday.NewClock(cfg.BusinessTimezone)
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	var venue store.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer pool.Close()
		venue = postgres.NewStore(pool, clock, postgres.Options{
			FallbackUnitPrice: cfg.FallbackUnitPrice,
		})
	} else {
		// DSN-less mode keeps state in memory; useful for local runs and
		// single-shift pop-ups where persistence does not matter.
		options := memory.Options{UnitPrice: cfg.FallbackUnitPrice}
		if cfg.DevAdminToken != "" {
			options.Sessions = []store.Session{{
				SessionID: cfg.DevAdminToken,
				UserID:    uuid.NewString(),
				Name:      "dev-admin",
				Role:      store.RoleAdmin,
			}}
		}
		venue = memory.NewStore(clock, options)
		log.Printf("no DB_DSN set, using in-memory store")
	}

	floorHub := hub.New()
	handler := httpapi.NewHandler(venue, floorHub)
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute: cfg.RateLimitPerMinute,
		IPBurst:     cfg.RateLimitBurst,
	})

	sockjsHandler := sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
		floorHub.Register(client)
		defer floorHub.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		// New subscribers get the current floor state right away instead
		// of waiting for the next mutation.
		if snapshot, err := venue.Snapshot(context.Background()); err == nil {
			floorHub.SendTo(client, snapshot, time.Now().UTC())
		}

		for {
			if _, err := session.Recv(); err != nil {
				return
			}
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.Handle("/realtime/", sockjsHandler)
	mux.Handle("/", httpapi.AuthMiddleware(venue, handler.Routes()))

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(mux)), "dinequeue")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("dinequeue listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
