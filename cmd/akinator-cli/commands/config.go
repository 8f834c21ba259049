package commands

import (
	"errors"
	"os"
	"time"

	"akiclient/lib/configutil"
	"akiclient/lib/restyutil"
	"akiclient/lib/scrapers/akinator/core"
	"akiclient/lib/scrapers/akinator/region"
	"akiclient/lib/scrapers/akinator/session"
	"akiclient/lib/telemetry"
)

const envPrefix = "AKICLIENT_"

type Config struct {
	Language         string `json:"language" env:"LANGUAGE"`
	ChildMode        bool   `json:"child_mode" env:"CHILD_MODE"`
	Domain           string `json:"domain" env:"DOMAIN"`
	TimeoutSeconds   int    `json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	CloudflareBypass *bool  `json:"cloudflare_bypass" env:"CLOUDFLARE_BYPASS"`
	DumpDir          string `json:"dump_dir" env:"DUMP_DIR"`
	LogDb            string `json:"log_db" env:"LOG_DB"`
	Verbose          bool   `json:"verbose" env:"VERBOSE"`
}

// LoadConfig reads path (a missing file is not an error), overlays the
// environment and fills in defaults.
func LoadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	err = configutil.ApplyEnv(&cfg, envPrefix)
	if err != nil {
		return Config{}, err
	}

	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Domain == "" {
		cfg.Domain = region.DefaultDomain
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = int(core.DefaultTimeout / time.Second)
	}
	if cfg.CloudflareBypass == nil {
		bypass := true
		cfg.CloudflareBypass = &bypass
	}
	return cfg, nil
}

func (c Config) clientOptions(tel telemetry.API) (core.ClientOptions, error) {
	opts := core.ClientOptions{
		Timeout:          time.Duration(c.TimeoutSeconds) * time.Second,
		CloudflareBypass: *c.CloudflareBypass,
		Telemetry:        tel,
	}
	if c.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(c.DumpDir)
		if err != nil {
			return core.ClientOptions{}, err
		}
		opts.DumpOutput = output
	}
	return opts, nil
}

// SessionOptions turns the config into session options, cache is shared
// by every session the command starts.
func (c Config) SessionOptions(tel telemetry.API, cache region.Cache) ([]session.Option, error) {
	clientOpts, err := c.clientOptions(tel)
	if err != nil {
		return nil, err
	}
	return []session.Option{
		session.WithDomain(c.Domain),
		session.WithTelemetry(tel),
		session.WithRegionCache(cache),
		session.WithClientOptions(clientOpts),
	}, nil
}
