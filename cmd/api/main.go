package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"smartkhata.org/internal/auth"
	"smartkhata.org/internal/config"
	"smartkhata.org/internal/httpapi"
	"smartkhata.org/internal/ledger"
	"smartkhata.org/internal/obs"
	"smartkhata.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("KHATA_BUILD_COMMIT"))

	if cfg.Auth.Secret != "" {
		auth.SetSecret(cfg.Auth.Secret)
	}

	// Postgres when a DSN is configured, the in-memory store otherwise.
	var (
		svc   ledger.Service
		probe httpapi.ReadyProbe
	)
	if cfg.Database.DSN != "" {
		store, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer store.Close()
		svc = store
		probe = httpapi.ReadyProbe{DB: store.DB()}
	} else {
		log.Printf("no database DSN configured, using in-memory store")
		svc = ledger.NewInMemory()
	}

	api := httpapi.New(svc, probe, version, httpapi.Options{
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		RateBurst:     cfg.Server.RateBurst,
		RatePerSecond: cfg.Server.RatePerSecond,
		TokenTTL:      cfg.Auth.TokenTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	log.Printf("Starting khata-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	obs.SetReady(true)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
