package config

import (
	"fmt"
	"strconv"
	"time"
)

// Environment variables recognised by parseEnv. Secrets normally arrive this
// way rather than on the command line.
const (
	EnvHTTPAddr           = "TUBEAUTH_HTTP_ADDR"
	EnvGRPCAddr           = "TUBEAUTH_GRPC_ADDR"
	EnvDatabaseDSN        = "TUBEAUTH_DATABASE_DSN"
	EnvSessionBackend     = "TUBEAUTH_SESSION_BACKEND"
	EnvRedisAddr          = "TUBEAUTH_REDIS_ADDR"
	EnvCookieSecure       = "TUBEAUTH_COOKIE_SECURE"
	EnvAccessTokenSecret  = "TUBEAUTH_ACCESS_TOKEN_SECRET"
	EnvAccessTokenTTL     = "TUBEAUTH_ACCESS_TOKEN_TTL"
	EnvRefreshTokenSecret = "TUBEAUTH_REFRESH_TOKEN_SECRET"
	EnvRefreshTokenTTL    = "TUBEAUTH_REFRESH_TOKEN_TTL"
	EnvPasswordHashCost   = "TUBEAUTH_PASSWORD_HASH_COST"
)

// parseEnv overlays Config fields from the environment. lookup is normally
// os.LookupEnv.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvHTTPAddr:           &config.HTTPAddr,
		EnvGRPCAddr:           &config.GRPCAddr,
		EnvDatabaseDSN:        &config.DatabaseDSN,
		EnvSessionBackend:     &config.SessionBackend,
		EnvRedisAddr:          &config.RedisAddr,
		EnvAccessTokenSecret:  &config.AccessTokenSecret,
		EnvRefreshTokenSecret: &config.RefreshTokenSecret,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		EnvAccessTokenTTL:  &config.AccessTokenTTL,
		EnvRefreshTokenTTL: &config.RefreshTokenTTL,
	}
	for name, dst := range durations {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = d
	}

	if v, ok := lookup(EnvCookieSecure); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCookieSecure, err)
		}
		config.CookieSecure = b
	}

	if v, ok := lookup(EnvPasswordHashCost); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPasswordHashCost, err)
		}
		config.PasswordHashCost = n
	}

	return nil
}
