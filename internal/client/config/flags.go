package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/tubeauth/internal/flagx"
)

// parseFlags overlays Config from command-line flags:
//
//	-a string          server base URL
//	-timeout duration  request timeout (e.g. "5s")
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-timeout"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "server base URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")

	return fs.Parse(args)
}
