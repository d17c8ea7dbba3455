package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Request body cap for JSON endpoints
const MaxRequestBodyBytes = 64 * 1024

// SSE heartbeat interval
const EventsHeartbeatInterval = 25 * time.Second

// Outbound Telegram API timeout
const TelegramRequestTimeout = 10 * time.Second
