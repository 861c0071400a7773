// Package config loads and validates kimchi's CheckerConfig via Viper,
// merging defaults, an optional config file, environment variables, and
// CLI flags in that precedence order (CLI wins, except GITHUB_TOKEN).
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Version is kimchi's release string, used to build the default user agent.
const Version = "0.1.0"

// BasicAuth holds optional HTTP basic-auth credentials applied to every
// outbound check, matching spec §3's "optional (user,pass)" field.
type BasicAuth struct {
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
}

// CheckerConfig enumerates every option spec §3 recognizes for the Checker,
// aggregated from defaults, file, environment, and CLI.
type CheckerConfig struct {
	MaxConcurrency     int               `mapstructure:"max_concurrency"`
	MaxRedirects       int               `mapstructure:"max_redirects"`
	TimeoutSeconds     int               `mapstructure:"timeout_seconds"`
	Method             string            `mapstructure:"method"`
	UserAgent          string            `mapstructure:"user_agent"`
	AcceptedStatus     []int             `mapstructure:"accepted_status"`
	Scheme             string            `mapstructure:"scheme"`
	Include            []string          `mapstructure:"include"`
	Exclude            []string          `mapstructure:"exclude"`
	ExcludePrivate     bool              `mapstructure:"exclude_private"`
	ExcludeLinkLocal   bool              `mapstructure:"exclude_link_local"`
	ExcludeLoopback    bool              `mapstructure:"exclude_loopback"`
	Headers            map[string]string `mapstructure:"headers"`
	BasicAuth          *BasicAuth        `mapstructure:"basic_auth"`
	GitHubToken        string            `mapstructure:"github_token"`
	AllowInsecureTLS   bool              `mapstructure:"allow_insecure_tls"`
	BaseURL            string            `mapstructure:"base_url"`
	GlobIgnoreCase     bool              `mapstructure:"glob_ignore_case"`
	SkipMissingInputs  bool              `mapstructure:"skip_missing_inputs"`
	Verbose            bool              `mapstructure:"verbose"`
	MailEnabled        bool              `mapstructure:"mail_enabled"`
	Threads            int               `mapstructure:"threads"`
}

// Load builds a CheckerConfig from defaults, then an optional file at path
// (skipped entirely when path is empty or missing), then environment
// variables prefixed KIMCHI_ (. replaced with _). Callers apply CLI flag
// overrides afterward by assigning fields on the returned CheckerConfig,
// except GITHUB_TOKEN which always wins per spec §6.
func Load(path string) (CheckerConfig, *viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("KIMCHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return CheckerConfig{}, nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg CheckerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return CheckerConfig{}, nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if token := v.GetString("github_token"); token != "" {
		cfg.GitHubToken = token
	}

	return cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_concurrency", 128)
	v.SetDefault("max_redirects", 10)
	v.SetDefault("timeout_seconds", 20)
	v.SetDefault("method", "GET")
	v.SetDefault("user_agent", "kimchi/"+Version)
	v.SetDefault("glob_ignore_case", false)
	v.SetDefault("skip_missing_inputs", false)
	v.SetDefault("verbose", false)
	v.SetDefault("allow_insecure_tls", false)
	v.SetDefault("exclude_private", false)
	v.SetDefault("exclude_link_local", false)
	v.SetDefault("exclude_loopback", false)
	v.SetDefault("mail_enabled", true)
	v.SetDefault("threads", 0)
}

// Validate enforces the constraints spec §3/§4.5 place on CheckerConfig
// before a run starts.
func (c CheckerConfig) Validate() error {
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be > 0")
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("max_redirects must be >= 0")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be > 0")
	}
	if c.Method != "GET" && c.Method != "HEAD" {
		return fmt.Errorf("method must be GET or HEAD, got %q", c.Method)
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
	}
	for _, pattern := range c.Include {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("include pattern %q: %w", pattern, err)
		}
	}
	for _, pattern := range c.Exclude {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
	}
	if c.BasicAuth != nil && c.BasicAuth.User == "" {
		return fmt.Errorf("basic_auth.user must be set when basic_auth is configured")
	}
	return nil
}

// CompiledIncludes compiles the Include patterns, failing fast on the first
// invalid one. Callers run Validate first, so errors here should not occur.
func (c CheckerConfig) CompiledIncludes() ([]*regexp.Regexp, error) {
	return compileAll(c.Include)
}

// CompiledExcludes compiles the Exclude patterns.
func (c CheckerConfig) CompiledExcludes() ([]*regexp.Regexp, error) {
	return compileAll(c.Exclude)
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// AcceptedStatusSet builds the status-code lookup set the Classifier
// consults, from the configured AcceptedStatus list.
func (c CheckerConfig) AcceptedStatusSet() map[int]struct{} {
	if len(c.AcceptedStatus) == 0 {
		return nil
	}
	set := make(map[int]struct{}, len(c.AcceptedStatus))
	for _, code := range c.AcceptedStatus {
		set[code] = struct{}{}
	}
	return set
}
