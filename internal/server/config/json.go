package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tubeauth/internal/flagx"
	"github.com/dmitrijs2005/tubeauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Pointer fields
// distinguish "absent" from zero so the file only overrides what it names.
type JsonConfig struct {
	HTTPAddr           *string         `json:"http_addr"`
	GRPCAddr           *string         `json:"grpc_addr"`
	DatabaseDSN        *string         `json:"database_dsn"`
	SessionBackend     *string         `json:"session_backend"`
	RedisAddr          *string         `json:"redis_addr"`
	CookieSecure       *bool           `json:"cookie_secure"`
	AccessTokenSecret  *string         `json:"access_token_secret"`
	AccessTokenTTL     *timex.Duration `json:"access_token_ttl"`
	RefreshTokenSecret *string         `json:"refresh_token_secret"`
	RefreshTokenTTL    *timex.Duration `json:"refresh_token_ttl"`
	PasswordHashCost   *int            `json:"password_hash_cost"`
}

// parseJson overlays values from the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.GRPCAddr, c.GRPCAddr)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SessionBackend, c.SessionBackend)
	setIf(&config.RedisAddr, c.RedisAddr)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.AccessTokenSecret, c.AccessTokenSecret)
	setIf(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setIf(&config.PasswordHashCost, c.PasswordHashCost)
	if c.AccessTokenTTL != nil {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL != nil {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}

	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
