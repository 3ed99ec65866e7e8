// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/voidworks/clipcrawl/internal/archive"
	"github.com/voidworks/clipcrawl/internal/sink"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging CrawlLoggingConfig `mapstructure:"logging"`
	Crawler CrawlerConfig      `mapstructure:"crawler"`
	Proxy   ProxyConfig        `mapstructure:"proxy"`
	Session SessionConfig      `mapstructure:"session"`
	Sink    sink.Config        `mapstructure:"sink"`
	Archive archive.Config     `mapstructure:"archive"`
	Publish PublishConfig      `mapstructure:"publish"`
	Server  ServerConfig       `mapstructure:"server"`
}

// CrawlLoggingConfig toggles zap development features.
type CrawlLoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CrawlerConfig governs the fetch pass.
type CrawlerConfig struct {
	ItemIDs     []string `mapstructure:"item_ids"`
	Concurrency int      `mapstructure:"concurrency"`
	Category    string   `mapstructure:"category"`
}

// ProxyConfig controls the optional rotating-proxy egress layer.
type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	PoolSize int      `mapstructure:"pool_size"`
	Validate bool     `mapstructure:"validate"`
	ProbeURL string   `mapstructure:"probe_url"`
	Entries  []string `mapstructure:"entries"`
}

// SessionConfig parameterizes session acquisition.
type SessionConfig struct {
	LoginMode   string `mapstructure:"login_mode"`
	Cookie      string `mapstructure:"cookie"`
	Headless    bool   `mapstructure:"headless"`
	UserDataDir string `mapstructure:"user_data_dir"`
	UserAgent   string `mapstructure:"user_agent"`
}

// PublishConfig holds metadata for stored-record notifications.
type PublishConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls HTTP serve mode.
type ServerConfig struct {
	Port                int `mapstructure:"port"`
	SyncIntervalMinutes int `mapstructure:"sync_interval_minutes"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLIPCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.category", "detail")
	v.SetDefault("proxy.enabled", false)
	v.SetDefault("proxy.pool_size", 2)
	v.SetDefault("proxy.validate", true)
	v.SetDefault("proxy.probe_url", "https://www.douyin.com")
	v.SetDefault("session.login_mode", "qrcode")
	v.SetDefault("session.headless", true)
	v.SetDefault("sink.variant", sink.VariantCSV)
	v.SetDefault("sink.base_path", "data/douyin")
	v.SetDefault("sink.table", "video_records")
	v.SetDefault("archive.variant", archive.VariantNone)
	v.SetDefault("archive.prefix", "raw")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.sync_interval_minutes", 0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Proxy.Enabled && c.Proxy.PoolSize <= 0 {
		return fmt.Errorf("proxy.pool_size must be > 0 when proxy is enabled")
	}
	if c.Sink.Variant == sink.VariantPostgres && c.Sink.DSN == "" {
		return fmt.Errorf("sink.dsn must be set for the postgres variant")
	}
	if c.Archive.Variant == archive.VariantGCS && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket must be set for the gcs variant")
	}
	if c.Session.LoginMode == "cookie" && c.Session.Cookie == "" {
		return fmt.Errorf("session.cookie must be set for cookie login")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}
