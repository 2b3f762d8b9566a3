// Package config loads and validates the harvester configuration.
// All values originate from Viper so the pipeline can be configured via
// a config file, environment variables, or CLI flags, but the rest of
// the program only ever sees the immutable Config value built here.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RobotsConfig groups the robots.txt compliance knobs.
type RobotsConfig struct {
	Respect      bool
	UserAgent    string
	CacheSize    int
	FetchTimeout time.Duration
}

// Config captures every knob that influences a harvest run.
type Config struct {
	UserAgents           []string
	RequestTimeout       time.Duration
	MinDelayPerDomain    time.Duration
	MaxDelayPerDomain    time.Duration
	MaxRetries           int
	RetryBaseDelay       time.Duration
	RetryMultiplier      float64
	RetryJitter          float64
	ProxyURL             string
	Robots               RobotsConfig
	PipelineConcurrency  int
	PerDomainConcurrency int
	RenderEnabled        bool
	RenderByDefault      bool
	SeedsCSV             string
	DatabaseDSN          string
	MetricsAddr          string
	Development          bool
}

// InitViper installs defaults and environment bindings. Called once at
// startup before Load.
func InitViper() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/leadharvest/")
	viper.AddConfigPath("$HOME/.leadharvest")

	viper.SetDefault("crawler.user_agents", []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:126.0) Gecko/20100101 Firefox/126.0",
	})
	viper.SetDefault("crawler.request_timeout", "30s")
	viper.SetDefault("crawler.min_delay_per_domain", "3s")
	viper.SetDefault("crawler.max_delay_per_domain", "10s")
	viper.SetDefault("crawler.max_retries", 3)
	viper.SetDefault("crawler.retry_base_delay", "1s")
	viper.SetDefault("crawler.retry_multiplier", 2.0)
	viper.SetDefault("crawler.retry_jitter", 0.5)
	viper.SetDefault("crawler.proxy_url", "")
	viper.SetDefault("crawler.render_enabled", false)
	viper.SetDefault("crawler.render_by_default", false)

	viper.SetDefault("robots.respect", true)
	viper.SetDefault("robots.user_agent", "*")
	viper.SetDefault("robots.cache_size", 100)
	viper.SetDefault("robots.fetch_timeout", "10s")

	viper.SetDefault("pipeline.concurrency", 5)
	viper.SetDefault("pipeline.per_domain_concurrency", 1)
	viper.SetDefault("pipeline.seeds_csv", "data/urls_seed.csv")

	viper.SetDefault("database.dsn", "")
	viper.SetDefault("metrics.addr", "")
	viper.SetDefault("development", false)

	viper.SetEnvPrefix("LEADHARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load constructs a Config from Viper and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		UserAgents:           v.GetStringSlice("crawler.user_agents"),
		RequestTimeout:       v.GetDuration("crawler.request_timeout"),
		MinDelayPerDomain:    v.GetDuration("crawler.min_delay_per_domain"),
		MaxDelayPerDomain:    v.GetDuration("crawler.max_delay_per_domain"),
		MaxRetries:           v.GetInt("crawler.max_retries"),
		RetryBaseDelay:       v.GetDuration("crawler.retry_base_delay"),
		RetryMultiplier:      v.GetFloat64("crawler.retry_multiplier"),
		RetryJitter:          v.GetFloat64("crawler.retry_jitter"),
		ProxyURL:             v.GetString("crawler.proxy_url"),
		RenderEnabled:        v.GetBool("crawler.render_enabled"),
		RenderByDefault:      v.GetBool("crawler.render_by_default"),
		Robots: RobotsConfig{
			Respect:      v.GetBool("robots.respect"),
			UserAgent:    v.GetString("robots.user_agent"),
			CacheSize:    v.GetInt("robots.cache_size"),
			FetchTimeout: v.GetDuration("robots.fetch_timeout"),
		},
		PipelineConcurrency:  v.GetInt("pipeline.concurrency"),
		PerDomainConcurrency: v.GetInt("pipeline.per_domain_concurrency"),
		SeedsCSV:             v.GetString("pipeline.seeds_csv"),
		DatabaseDSN:          v.GetString("database.dsn"),
		MetricsAddr:          v.GetString("metrics.addr"),
		Development:          v.GetBool("development"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if len(c.UserAgents) == 0 {
		return fmt.Errorf("crawler.user_agents must include at least one user agent")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	if c.MinDelayPerDomain < 0 {
		return fmt.Errorf("crawler.min_delay_per_domain must be >= 0")
	}
	if c.MaxDelayPerDomain < c.MinDelayPerDomain {
		return fmt.Errorf("crawler.max_delay_per_domain must be >= crawler.min_delay_per_domain")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("crawler.max_retries must be >= 0")
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("crawler.retry_base_delay must be > 0")
	}
	if c.RetryMultiplier < 1 {
		return fmt.Errorf("crawler.retry_multiplier must be >= 1")
	}
	if c.RetryJitter < 0 || c.RetryJitter > 1 {
		return fmt.Errorf("crawler.retry_jitter must be within [0, 1]")
	}
	if c.Robots.Respect {
		if c.Robots.UserAgent == "" {
			return fmt.Errorf("robots.user_agent must be set when robots.respect is enabled")
		}
		if c.Robots.CacheSize <= 0 {
			return fmt.Errorf("robots.cache_size must be > 0")
		}
		if c.Robots.FetchTimeout <= 0 {
			return fmt.Errorf("robots.fetch_timeout must be > 0")
		}
	}
	if c.PipelineConcurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be > 0")
	}
	if c.PerDomainConcurrency <= 0 {
		return fmt.Errorf("pipeline.per_domain_concurrency must be > 0")
	}
	return nil
}
