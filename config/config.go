package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/ecaspace/auth"
	"github.com/jonwraymond/ecaspace/observe"
	"github.com/jonwraymond/ecaspace/resilience"
	"github.com/jonwraymond/ecaspace/session"
	"github.com/jonwraymond/ecaspace/spacetime"
)

// Config is the file-level configuration of ecaspace.
type Config struct {
	// Rule is the Wolfram rule number.
	Rule int `yaml:"rule"`

	// Initial is the t = 0 row as 0/1 patterns.
	Initial Initial `yaml:"initial"`

	// Budget bounds each query attempt. Zero selects resilience.DefaultFrame.
	Budget time.Duration `yaml:"budget"`

	// Poll controls how out-of-budget queries are re-issued.
	Poll Poll `yaml:"poll"`

	// CacheCapacity bounds the raster grid cache.
	CacheCapacity int `yaml:"cache_capacity"`

	// MaxSlices lowers the slice id ceiling. Zero keeps the full id space.
	MaxSlices int `yaml:"max_slices"`

	Observe Observe `yaml:"observe"`
	Serve   Serve   `yaml:"serve"`
}

// Initial describes the t = 0 row. Center starts at x = 0; Left repeats
// to the left of it and Right to the right.
type Initial struct {
	Center string `yaml:"center"`
	Left   string `yaml:"left"`
	Right  string `yaml:"right"`
}

// Poll configures query re-issue.
type Poll struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

// Observe mirrors observe.Config.
type Observe struct {
	ServiceName string  `yaml:"service_name"`
	Tracing     Tracing `yaml:"tracing"`
	Metrics     Metrics `yaml:"metrics"`
	Logging     Logging `yaml:"logging"`
}

// Tracing mirrors observe.TracingConfig.
type Tracing struct {
	Enabled   bool    `yaml:"enabled"`
	Exporter  string  `yaml:"exporter"`
	SamplePct float64 `yaml:"sample_pct"`
}

// Metrics mirrors observe.MetricsConfig.
type Metrics struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Logging mirrors observe.LoggingConfig.
type Logging struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// Serve configures the HTTP server.
type Serve struct {
	Addr string `yaml:"addr"`

	// MaxWidth caps the width accepted by the row endpoint.
	MaxWidth int `yaml:"max_width"`

	// Auth protects the query endpoints. Empty leaves them open.
	Auth Auth `yaml:"auth"`

	// Limits bounds query traffic on the shared session.
	Limits Limits `yaml:"limits"`
}

// Limits configures admission to the query endpoints.
type Limits struct {
	// MaxConcurrent caps queries in flight. Default: 16
	MaxConcurrent int `yaml:"max_concurrent"`

	// MaxWait is how long a query may queue for a slot or a token.
	MaxWait time.Duration `yaml:"max_wait"`

	// Rate admits this many queries per second. Zero disables rate limiting.
	Rate float64 `yaml:"rate"`

	// Burst is the rate limiter bucket size. Default: 10
	Burst int `yaml:"burst"`
}

// Auth lists the credentials accepted by the query endpoints.
type Auth struct {
	// Header carries API keys. Default: X-API-Key
	Header  string   `yaml:"header"`
	APIKeys []APIKey `yaml:"api_keys"`
	JWT     JWT      `yaml:"jwt"`
}

// APIKey registers a key by its SHA-256 hex digest.
type APIKey struct {
	Principal string `yaml:"principal"`
	SHA256    string `yaml:"sha256"`
}

// JWT configures HMAC bearer tokens. An empty secret disables them.
type JWT struct {
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	Audience string        `yaml:"audience"`
	Leeway   time.Duration `yaml:"leeway"`
}

// Default returns the configuration used when no file is given: rule 110
// from a single live cell.
func Default() Config {
	return Config{
		Rule:          110,
		Initial:       Initial{Center: "1", Left: "0", Right: "0"},
		Budget:        resilience.DefaultFrame,
		Poll:          Poll{Attempts: 10, Interval: 100 * time.Millisecond},
		CacheCapacity: session.DefaultCacheCapacity,
		Observe: Observe{
			ServiceName: "ecaspace",
			Tracing:     Tracing{Exporter: "none", SamplePct: 1.0},
			Metrics:     Metrics{Enabled: true, Exporter: "prometheus"},
			Logging:     Logging{Enabled: true, Level: "info"},
		},
		Serve: Serve{
			Addr:     ":8080",
			MaxWidth: 4096,
			Limits:   Limits{MaxConcurrent: resilience.DefaultMaxConcurrent, MaxWait: time.Second},
		},
	}
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over Default and validates the result.
func Parse(data []byte) (Config, error) {
	return parse(data, os.LookupEnv)
}

func parse(data []byte, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := expandNode(&doc, lookup); err != nil {
		return Config{}, err
	}
	if err := doc.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative, got %s", ErrInvalidConfig, c.Budget)
	}
	if c.Poll.Attempts < 0 {
		return fmt.Errorf("%w: poll attempts must not be negative, got %d", ErrInvalidConfig, c.Poll.Attempts)
	}
	if c.Poll.Interval < 0 {
		return fmt.Errorf("%w: poll interval must not be negative, got %s", ErrInvalidConfig, c.Poll.Interval)
	}
	if c.Serve.MaxWidth < 0 {
		return fmt.Errorf("%w: serve max width must not be negative, got %d", ErrInvalidConfig, c.Serve.MaxWidth)
	}
	if l := c.Serve.Limits; l.MaxConcurrent < 0 || l.MaxWait < 0 || l.Rate < 0 || l.Burst < 0 {
		return fmt.Errorf("%w: serve limits must not be negative, got %+v", ErrInvalidConfig, l)
	}

	sc, err := c.SessionConfig()
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}

	oc := c.ObserveConfig()
	if err := oc.Validate(); err != nil {
		return err
	}

	_, err = c.Authenticator()
	return err
}

// SessionConfig converts c into a session configuration.
func (c *Config) SessionConfig() (session.Config, error) {
	var in spacetime.Initial
	var err error
	if in.Center, err = ParsePattern(c.Initial.Center); err != nil {
		return session.Config{}, fmt.Errorf("initial.center: %w", err)
	}
	if in.LeftCycle, err = ParsePattern(c.Initial.Left); err != nil {
		return session.Config{}, fmt.Errorf("initial.left: %w", err)
	}
	if in.RightCycle, err = ParsePattern(c.Initial.Right); err != nil {
		return session.Config{}, fmt.Errorf("initial.right: %w", err)
	}
	return session.Config{
		Rule:          c.Rule,
		Initial:       in,
		CacheCapacity: c.CacheCapacity,
		MaxSlices:     c.MaxSlices,
	}, nil
}

// ObserveConfig converts the observe section. Writers and registerers are
// left for the caller to set.
func (c *Config) ObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: c.Observe.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observe.Tracing.Enabled,
			Exporter:  c.Observe.Tracing.Exporter,
			SamplePct: c.Observe.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observe.Metrics.Enabled,
			Exporter: c.Observe.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.Observe.Logging.Enabled,
			Level:   c.Observe.Logging.Level,
		},
	}
}

// Authenticator builds the authenticator of the serve.auth section, or
// returns nil when no credentials are configured.
func (c *Config) Authenticator() (auth.Authenticator, error) {
	var chain auth.Chain
	if a := c.Serve.Auth; len(a.APIKeys) > 0 {
		keys := make([]auth.APIKey, len(a.APIKeys))
		for i, k := range a.APIKeys {
			keys[i] = auth.APIKey{Principal: k.Principal, SHA256: k.SHA256}
		}
		ka, err := auth.NewAPIKeyAuthenticator(a.Header, keys)
		if err != nil {
			return nil, fmt.Errorf("serve.auth.api_keys: %w", err)
		}
		chain = append(chain, ka)
	}
	if j := c.Serve.Auth.JWT; j.Secret != "" {
		ja, err := auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret:   []byte(j.Secret),
			Issuer:   j.Issuer,
			Audience: j.Audience,
			Leeway:   j.Leeway,
		})
		if err != nil {
			return nil, fmt.Errorf("serve.auth.jwt: %w", err)
		}
		chain = append(chain, ja)
	}
	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}

// PollerConfig converts the budget and poll settings. Zero values fall
// back to the resilience defaults.
func (c *Config) PollerConfig() resilience.PollerConfig {
	cfg := resilience.PollerConfig{
		MaxAttempts: c.Poll.Attempts,
		Interval:    c.Poll.Interval,
	}
	if c.Budget > 0 {
		cfg.Budget = resilience.NewBudget(resilience.BudgetConfig{Frame: c.Budget})
	}
	return cfg
}

// Bulkhead builds the concurrency cap of the serve.limits section.
func (c *Config) Bulkhead() *resilience.Bulkhead {
	return resilience.NewBulkhead(resilience.BulkheadConfig{
		MaxConcurrent: c.Serve.Limits.MaxConcurrent,
		MaxWait:       c.Serve.Limits.MaxWait,
	})
}

// RateLimiter builds the rate limiter of the serve.limits section, or
// returns nil when no rate is configured.
func (c *Config) RateLimiter() *resilience.RateLimiter {
	l := c.Serve.Limits
	if l.Rate == 0 {
		return nil
	}
	return resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Rate:    l.Rate,
		Burst:   l.Burst,
		MaxWait: l.MaxWait,
	})
}

// ParsePattern converts a string of 0 and 1 into cells. Blanks are ignored.
func ParsePattern(s string) ([]bool, error) {
	var cells []bool
	for i, r := range s {
		switch r {
		case '0':
			cells = append(cells, false)
		case '1':
			cells = append(cells, true)
		case ' ', '\t', '_':
		default:
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidPattern, r, i)
		}
	}
	return cells, nil
}

// FormatPattern is the inverse of ParsePattern.
func FormatPattern(cells []bool) string {
	var b strings.Builder
	b.Grow(len(cells))
	for _, c := range cells {
		if c {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
