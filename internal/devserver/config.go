package devserver

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/quickqr/internal/flagx"
)

// Config holds runtime settings for the development backend.
//
// Fields:
//   - Addr: listen address.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the default outside development.
//   - TokenTTL: access token lifetime.
//   - ImageURLTemplate: fmt template turning an encoded target URL into an image locator.
//   - LogLevel / LogFormat: see package logging.
type Config struct {
	Addr             string
	SecretKey        string
	TokenTTL         time.Duration
	ImageURLTemplate string
	LogLevel         string
	LogFormat        string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.SecretKey = "secretKey"
	c.TokenTTL = 60 * time.Minute
	c.ImageURLTemplate = "https://api.qrserver.com/v1/create-qr-code/?size=256x256&data=%s"
	c.LogLevel = "info"
	c.LogFormat = "console"
}

// LoadConfig applies defaults and then command-line flags.
//
//	-a string   listen address
//	-s string   JWT HMAC secret key
//	-ttl int    token lifetime, minutes
//	-l string   log level
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	filtered := flagx.FilterArgs(args, []string{"-a", "-s", "-ttl", "-l"})

	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to run server")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	ttl := fs.Int("ttl", int(cfg.TokenTTL.Minutes()), "token validity (in minutes)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(filtered); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if *ttl <= 0 {
		return nil, fmt.Errorf("parse flags: token validity must be positive, got %d", *ttl)
	}
	cfg.TokenTTL = time.Duration(*ttl) * time.Minute

	return cfg, nil
}
