package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/tubeauth/internal/flagx"
)

// parseFlags overlays Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g. ":8000")
//	-g string     gRPC bind address, empty disables gRPC
//	-d string     PostgreSQL DSN
//	-b string     session backend: postgres | redis
//	-redis string Redis address
//	-secure bool  Secure attribute on session cookies
//	-s string     access token secret
//	-S string     refresh token secret
//	-t duration   access token TTL (e.g. "15m")
//	-r duration   refresh token TTL (e.g. "240h")
//	-w int        bcrypt cost factor
//
// Arguments belonging to other components (like -c) are filtered out first.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-b", "-redis", "-secure", "-s", "-S", "-t", "-r", "-w"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionBackend, "b", config.SessionBackend, "session backend (postgres|redis)")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.BoolVar(&config.CookieSecure, "secure", config.CookieSecure, "secure session cookies")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "S", config.RefreshTokenSecret, "refresh token secret")
	fs.DurationVar(&config.AccessTokenTTL, "t", config.AccessTokenTTL, "access token TTL")
	fs.DurationVar(&config.RefreshTokenTTL, "r", config.RefreshTokenTTL, "refresh token TTL")
	fs.IntVar(&config.PasswordHashCost, "w", config.PasswordHashCost, "password hash cost factor")

	return fs.Parse(args)
}
