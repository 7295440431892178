package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/robfig/cron/v3"

	"github.com/cipherstudio/cipherstudio-backend/config"
	"github.com/cipherstudio/cipherstudio-backend/internal/auth"
	"github.com/cipherstudio/cipherstudio-backend/internal/bootstrap"
	"github.com/cipherstudio/cipherstudio-backend/internal/editor"
	"github.com/cipherstudio/cipherstudio-backend/internal/projects"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      cfg.Database.DSN,
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if rdb == nil {
		log.Println("REDIS_ADDR not set, preview cache disabled")
	} else {
		defer rdb.Close()
	}

	var fbClient *fbauth.Client
	if cfg.Firebase.CredentialsPath != "" {
		fbClient, err = auth.InitializeFirebase(cfg.Firebase.CredentialsPath)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
	} else {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, using dev header auth")
	}

	gateway := projects.NewGateway(projects.NewRepo(db))
	sessions := editor.NewManager(gateway, editor.ManagerOptions{
		Debounce: cfg.Editor.SaveDebounce,
		MaxIdle:  cfg.Editor.SessionMaxIdle,
	})

	// Periodic safety net around the debounced autosave: flush anything
	// dirty and retire idle sessions.
	c := cron.New()
	if _, err := c.AddFunc("@every 30s", func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		sessions.FlushDirty(flushCtx)
	}); err != nil {
		log.Fatalf("cron flush job: %v", err)
	}
	if _, err := c.AddFunc("@every 5m", func() {
		evictCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sessions.EvictIdle(evictCtx)
	}); err != nil {
		log.Fatalf("cron evict job: %v", err)
	}
	c.Start()
	defer c.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "cipherstudio-backend",
		Version:        cfg.App.Version,
		DB:             db,
		Redis:          rdb,
		FirebaseAuth:   fbClient,
		Sessions:       sessions,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s [%s]", cfg.Server.Port, cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	// Unsaved edits go out before the pool closes.
	sessions.Close(shutdownCtx)
}
