package main

import "time"

// Config holds server configuration loaded from DEVPROVIDER_* environment variables
type Config struct {
	Port              int           `envconfig:"PORT" default:"9096"`
	RedisURL          string        `envconfig:"REDIS_URL"`
	ClientID          string        `envconfig:"CLIENT_ID" default:"cli-client"`
	ClientSecret      string        `envconfig:"CLIENT_SECRET" default:"dev-secret"`
	CodeExpiry        time.Duration `envconfig:"CODE_EXPIRY" default:"1m"`
	Deny              bool          `envconfig:"DENY" default:"false"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
}
