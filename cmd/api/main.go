package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vernis.app/internal/auth"
	"vernis.app/internal/config"
	"vernis.app/internal/httpapi"
	"vernis.app/internal/migrate"
	"vernis.app/internal/obs"
	"vernis.app/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	if cfg.DatabaseDSN == "" {
		log.Fatal("VERNIS_PG_DSN is required")
	}
	store, err := pg.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	mgr := migrate.NewManager(store.DB(), os.DirFS("migrations"), os.DirFS("migrations/seeds"))
	if err := mgr.Up(ctx); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	if err := mgr.Seed(ctx); err != nil {
		cancel()
		log.Fatalf("seed: %v", err)
	}
	cancel()

	tokens, err := auth.NewTokenManager(cfg.AuthSecret, cfg.AuthIssuer,
		auth.WithSessionTTL(cfg.SessionTTL))
	if err != nil {
		log.Fatalf("token manager: %v", err)
	}
	svc, err := auth.NewService(store, tokens,
		auth.WithConfirmTTL(cfg.ConfirmTTL),
		auth.WithResetTTL(cfg.ResetTTL))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	gate := auth.NewGate(auth.NewResolver(store))

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.EnsureBuiltins(ctx); err != nil {
		cancel()
		log.Fatalf("ensure roles: %v", err)
	}
	cancel()

	api := httpapi.New(svc, gate, httpapi.ReadyProbe{DB: store.DB()}, version,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec))

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting vernis-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Println("Stopped")
}
