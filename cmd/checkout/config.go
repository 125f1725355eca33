package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the CLI settings, loadable from KART_ environment variables
// or a YAML file. Subcommand arguments are parsed separately.
type Config struct {
	APIURL    string        `default:"http://localhost:8080" usage:"Storefront API base URL"`
	TokenFile string        `default:"" usage:"File holding the bearer token (default ~/.kart/token)"`
	Currency  string        `default:"INR" usage:"Currency of online payments"`
	Timeout   time.Duration `default:"15s" usage:"HTTP request timeout"`
	Debug     bool          `default:"false" usage:"Log requests to stderr"`
	Sandbox   SandboxConfig
}

// SandboxConfig enables the local sandbox widget for online payments. It
// must use the same credentials as the server.
type SandboxConfig struct {
	KeyID  string `default:"" usage:"Gateway key id"`
	Secret string `default:"" usage:"Gateway secret"`
}

// Enabled reports whether sandbox credentials are configured.
func (c SandboxConfig) Enabled() bool {
	return c.KeyID != "" && c.Secret != ""
}

func loadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KART",
		SkipFlags: true,
		Files:     []string{"kart-cli.yaml", filepath.Join(homeDir(), ".kart", "config.yaml")},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = filepath.Join(homeDir(), ".kart", "token")
	}
	return &cfg, nil
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}
