// Command oauth2-noserver runs the loopback authorization code flow once and
// prints the resulting token as JSON on stdout
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	noserver "github.com/wrale/oauth2-noserver"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	var env Config
	if err := envconfig.Process("noserver", &env); err != nil {
		logger.WithError(err).Fatal("loading configuration")
	}
	if level, err := logrus.ParseLevel(env.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	cfg, err := env.authConfig()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	opts := []noserver.Option{noserver.WithLogger(logger)}
	if env.NoBrowser {
		opts = append(opts, noserver.WithoutBrowser())
	}
	auth, err := noserver.New(cfg, opts...)
	if err != nil {
		logger.WithError(err).Fatal("creating authenticator")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := auth.Authenticate(ctx)
	if err != nil {
		stop()
		logger.WithField("kind", noserver.KindOf(err).String()).Error(err)
		os.Exit(exitCode(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(token); err != nil {
		stop()
		logger.WithError(err).Fatal("writing token")
	}
}

// exitCode separates user-driven outcomes from failures worth retrying
func exitCode(err error) int {
	switch {
	case errors.Is(err, noserver.ErrCanceled):
		return 130
	case errors.Is(err, noserver.ErrTimeout), errors.Is(err, noserver.ErrProvider):
		return 2
	case errors.Is(err, noserver.ErrConfig):
		return 78
	default:
		return 1
	}
}
