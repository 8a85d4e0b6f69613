// Command devprovider runs a local OAuth2 authorization server that approves
// every consent request, for trying loopback redirects without a real provider
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wrale/oauth2-noserver/internal/devprovider"
)

// Version is set by the build process
var Version = "dev"

func main() {
	logger := logrus.New()

	var cfg Config
	if err := envconfig.Process("devprovider", &cfg); err != nil {
		logger.WithError(err).Fatal("loading configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	var (
		store       devprovider.Store = devprovider.NewMemoryStore()
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("parsing Redis URL")
		}
		redisClient = redis.NewClient(redisOpts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("connecting to Redis")
		}
		store = devprovider.NewRedisStore(redisClient)
	}

	srv := devprovider.NewServer(store, cfg.ClientID, cfg.ClientSecret,
		devprovider.WithLogger(logger),
		devprovider.WithCodeExpiry(cfg.CodeExpiry),
		devprovider.WithDeny(cfg.Deny),
		devprovider.WithVersion(Version),
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"authorize": fmt.Sprintf("http://%s/authorize", httpServer.Addr),
			"token":     fmt.Sprintf("http://%s/token", httpServer.Addr),
			"client_id": cfg.ClientID,
		}).Info("devprovider listening")
		serverErrors <- httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("starting server")
		}

	case <-shutdown:
		logger.Info("starting shutdown")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("shutting down server")
			if err := httpServer.Close(); err != nil {
				logger.WithError(err).Warn("closing server")
			}
		}

		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.WithError(err).Warn("closing Redis connection")
			}
		}
	}
}
