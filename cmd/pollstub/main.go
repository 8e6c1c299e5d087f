package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/adapters/handler/stub"
	"github.com/vncsmyrnk/pollctl/internal/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(envOr("POLLSTUB_LOG_LEVEL", "info"), true)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	secret := []byte(os.Getenv("POLLSTUB_JWT_SECRET"))
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatal("failed to generate signing key", zap.Error(err))
		}
		log.Info("POLLSTUB_JWT_SECRET not set, tokens are valid until restart")
	}

	ttl := stub.DefaultTokenTTL
	if raw := os.Getenv("POLLSTUB_TOKEN_TTL"); raw != "" {
		if ttl, err = time.ParseDuration(raw); err != nil {
			log.Fatal("invalid POLLSTUB_TOKEN_TTL", zap.Error(err))
		}
	}

	var origins []string
	if raw := os.Getenv("POLLSTUB_ALLOWED_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := stub.NewHub(ctx, log)
	handler := stub.NewHandler(stub.NewStore(), stub.NewTokenIssuer(secret, ttl), hub, log, origins)
	server := &http.Server{Addr: envOr("POLLSTUB_ADDR", "0.0.0.0:8000"), Handler: handler}

	go func() {
		log.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("gracefully shutting down")
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("shutdown failed", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
