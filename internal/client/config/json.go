package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tubeauth/internal/flagx"
	"github.com/dmitrijs2005/tubeauth/internal/timex"
)

// JsonConfig is the on-disk shape of the client configuration.
type JsonConfig struct {
	ServerURL *string         `json:"server_url"`
	Timeout   *timex.Duration `json:"timeout"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.Timeout != nil {
		cfg.Timeout = jc.Timeout.Duration
	}
	return nil
}
