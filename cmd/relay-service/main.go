// cmd/relay-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/highlevel"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/relay"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/resolver"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/ultramsg"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/pkg/config"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/pkg/db"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/pkg/directory"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/pkg/logger"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/pkg/middleware"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	var store directory.Store
	var correlations directory.CorrelationStore
	if pool != nil {
		pg := directory.NewPostgresStore(pool, log)
		if err := directory.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
		store, correlations = pg, pg
	} else {
		log.Warnw("DATABASE_URL not set — using in-memory stores (dev only)")
		mem := directory.NewMemoryStore(log)
		store, correlations = mem, mem
	}
	if rdb != nil {
		correlations = directory.NewRedisCorrelationStore(rdb, log)
	}
	if err := directory.SeedFromEnv(context.Background(), store); err != nil {
		log.Warnw("seed", "err", err)
	}

	dir := directory.New(store, correlations, cfg)
	res := resolver.New(dir, log)
	provider := ultramsg.NewClient(cfg.UltramsgBaseURL, cfg.HTTPTimeout, log)
	crm := highlevel.NewClient(cfg.HighLevelBaseURL, cfg.HTTPTimeout, log)
	svc := relay.NewService(dir, res, provider, crm, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.DebugWriteHeader())
	r.Use(middleware.Tracing(cfg))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	relay.Register(r, svc, log)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("relay-service listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("relay-service stopped")
}
