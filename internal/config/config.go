// Package config loads the groupfeed settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	feed "github.com/hanpama/groupfeed/internal/feed"
)

var (
	ErrRead    = errors.New("config: read failed")
	ErrParse   = errors.New("config: parse failed")
	ErrInvalid = errors.New("config: invalid")
)

const (
	DefaultEndpoint = "https://www.tes-stage.com/api/graphql"
	DefaultReferer  = "https://www.tes-stage.com/"
)

// Environment variables that override file settings.
const (
	EnvToken        = "GROUPFEED_TOKEN"
	EnvEndpoint     = "GROUPFEED_ENDPOINT"
	EnvGroupID      = "GROUPFEED_GROUP_ID"
	EnvLogLevel     = "GROUPFEED_LOG_LEVEL"
	EnvOTelEndpoint = "GROUPFEED_OTEL_ENDPOINT"
	EnvTimeout      = "GROUPFEED_TIMEOUT"
	EnvCacheFile    = "GROUPFEED_CACHE_FILE"
)

type Config struct {
	Endpoint string        `yaml:"endpoint" validate:"required,url"`
	Referer  string        `yaml:"referer" validate:"omitempty,url"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`

	GroupID            string `yaml:"group_id" validate:"required"`
	PostLimit          int    `yaml:"post_limit" validate:"gte=0"`
	DisableCacheUpdate bool   `yaml:"disable_cache_update"`

	// CacheFile persists the normalized cache between runs when set.
	CacheFile string `yaml:"cache_file"`

	Log  Log  `yaml:"log"`
	OTel OTel `yaml:"otel"`
}

type Log struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// OTel configures span export. An empty endpoint disables tracing.
type OTel struct {
	Endpoint string `yaml:"endpoint" validate:"omitempty,hostname_port"`
	Service  string `yaml:"service"`
}

func Default() *Config {
	return &Config{
		Endpoint:  DefaultEndpoint,
		Referer:   DefaultReferer,
		Timeout:   10 * time.Second,
		GroupID:   feed.DefaultGroupID,
		PostLimit: 3,
		Log:       Log{Level: "info"},
		OTel:      OTel{Service: "groupfeed"},
	}
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads path over the defaults, when path is not empty, and applies
// environment overrides from lookup (os.LookupEnv when nil). The result is
// not validated so that callers can apply flags first.
func Load(path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, zerr.With(errors.Join(ErrRead, err), "path", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, zerr.With(errors.Join(ErrParse, err), "path", path)
		}
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvToken, &c.Token)
	set(EnvEndpoint, &c.Endpoint)
	set(EnvGroupID, &c.GroupID)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvOTelEndpoint, &c.OTel.Endpoint)
	set(EnvCacheFile, &c.CacheFile)
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			if secs, aerr := strconv.Atoi(v); aerr == nil {
				d = time.Duration(secs) * time.Second
			} else {
				return zerr.With(errors.Join(ErrParse, err), "env", EnvTimeout)
			}
		}
		c.Timeout = d
	}
	return nil
}

var validate = validator.New()

// Validate checks c and reports every invalid field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Join(ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be a URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "hostname_port":
		return field + " must be host:port"
	default:
		return field + " is invalid"
	}
}
