package conf

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Fixed parameters of the authorization code exchange.
const (
	Scope     = "openid profile email"
	GrantType = "authorization_code"
)

const (
	defaultAddr        = ":80"
	defaultHTTPTimeout = 30 * time.Second
	defaultHistoryDB   = "data/runs.db"
)

// ErrConfigurationMissing is returned when a required environment variable is
// unset or empty.
var ErrConfigurationMissing = errors.New("required configuration missing")

// Config is the config structure.
type Config struct {
	Server   Server   `yaml:"server"`
	Provider Provider `yaml:"-"`
}

// Server is the server config.
type Server struct {
	Addr        string        `yaml:"addr"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	HistoryDB   string        `yaml:"history_db"`
}

// Provider holds the identity provider settings, read from the environment only.
type Provider struct {
	KeycloakURL       string
	Realm             string
	ClientID          string
	ClientSecret      string
	Audience          string
	UserInfoURL       string
	RedirectURI       string
	AuthorizationCode string
}

// TokenURL returns the realm's token endpoint.
// The parts are concatenated as-is, so a trailing slash on KEYCLOAK_URL is kept.
func (p *Provider) TokenURL() string {
	return p.KeycloakURL + "/auth/realms/" + p.Realm + "/protocol/openid-connect/token"
}

// CallbackURL returns the redirect_uri sent with the exchange: REDIRECT_URI
// followed by the literal "callback".
func (p *Provider) CallbackURL() string {
	return p.RedirectURI + "callback"
}

// Load loads config from file and environment.
// A missing file is not an error; the server section then uses defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Server.HTTPTimeout == 0 {
		cfg.Server.HTTPTimeout = defaultHTTPTimeout
	}
	if cfg.Server.HistoryDB == "" {
		cfg.Server.HistoryDB = defaultHistoryDB
	}

	// Override server config from env vars if present
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if timeout := os.Getenv("HTTP_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", timeout, err)
		}
		cfg.Server.HTTPTimeout = d
	}
	if db := os.Getenv("HISTORY_DB"); db != "" {
		cfg.Server.HistoryDB = db
	}

	provider, err := loadProvider()
	if err != nil {
		return nil, err
	}
	cfg.Provider = *provider

	return &cfg, nil
}

// loadProvider reads every required variable and reports all missing ones together.
func loadProvider() (*Provider, error) {
	var merr *multierror.Error
	require := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s", ErrConfigurationMissing, key))
		}
		return v
	}

	p := &Provider{
		KeycloakURL:       require("KEYCLOAK_URL"),
		Realm:             require("REALM"),
		ClientID:          require("CLIENT_ID"),
		ClientSecret:      require("CLIENT_SECRET"),
		Audience:          require("API_AUDIENCE"),
		UserInfoURL:       require("USERINFO_URL"),
		RedirectURI:       require("REDIRECT_URI"),
		AuthorizationCode: require("AUTHORIZATION_CODE"),
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return p, nil
}
