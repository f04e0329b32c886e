// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the process-wide settings. None of it is required to run; every
// field has a default set in SetDefaults.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Vendor   VendorConfig   `mapstructure:"vendor" yaml:"vendor"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Profile  ProfileConfig  `mapstructure:"profile" yaml:"profile"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance.
type BrowserConfig struct {
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	ExecPath        string         `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent       string         `mapstructure:"user_agent" yaml:"user_agent"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	LaunchTimeout   time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        map[string]int `mapstructure:"viewport" yaml:"viewport"`
}

// VendorConfig locates the vendor pages. The site layout is not a stable
// contract, so the URLs live here rather than in code.
type VendorConfig struct {
	LoginURL     string `mapstructure:"login_url" yaml:"login_url"`
	DownloadsURL string `mapstructure:"downloads_url" yaml:"downloads_url"`
	// LoginMarker is a substring present in every sign-in page URL.
	LoginMarker string `mapstructure:"login_marker" yaml:"login_marker"`
	// LoginTimeout bounds the wait for the post-login redirect.
	LoginTimeout time.Duration `mapstructure:"login_timeout" yaml:"login_timeout"`
	// PageTimeout bounds every other page or element wait.
	PageTimeout time.Duration `mapstructure:"page_timeout" yaml:"page_timeout"`
}

// DownloadConfig tunes the completion poller.
type DownloadConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	PartialSuffixes []string      `mapstructure:"partial_suffixes" yaml:"partial_suffixes"`
	Progress        bool          `mapstructure:"progress" yaml:"progress"`
}

// ProfileConfig pre-fills the export compliance form. Empty fields are left
// to whatever the site already filled in, or asked for interactively.
type ProfileConfig struct {
	Email       string `mapstructure:"email" yaml:"email"`
	FirstName   string `mapstructure:"first_name" yaml:"first_name"`
	LastName    string `mapstructure:"last_name" yaml:"last_name"`
	Company     string `mapstructure:"company" yaml:"company"`
	Address1    string `mapstructure:"address_1" yaml:"address_1"`
	Address2    string `mapstructure:"address_2" yaml:"address_2"`
	Country     string `mapstructure:"country" yaml:"country"`
	State       string `mapstructure:"state" yaml:"state"`
	City        string `mapstructure:"city" yaml:"city"`
	PostalCode  string `mapstructure:"postal_code" yaml:"postal_code"`
	Phone       string `mapstructure:"phone" yaml:"phone"`
	JobFunction string `mapstructure:"job_function" yaml:"job_function"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "vivado-fetch")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", DefaultUserAgent)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.viewport", map[string]int{"width": 1920, "height": 1080})

	// -- Vendor --
	v.SetDefault("vendor.login_url", "https://login.amd.com/")
	v.SetDefault("vendor.downloads_url", "https://www.xilinx.com/support/download/index.html/content/xilinx/en/downloadNav/vivado-design-tools.html")
	v.SetDefault("vendor.login_marker", "login")
	v.SetDefault("vendor.login_timeout", "20s")
	v.SetDefault("vendor.page_timeout", "20s")

	// -- Download --
	v.SetDefault("download.poll_interval", "1s")
	v.SetDefault("download.partial_suffixes", []string{".crdownload", ".part", ".tmp"})
	v.SetDefault("download.progress", true)
}

// DefaultUserAgent mimics a regular desktop Chrome so the vendor site serves
// the same pages it serves to people.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Vendor.LoginURL == "" || c.Vendor.DownloadsURL == "" {
		return fmt.Errorf("vendor.login_url and vendor.downloads_url are required")
	}
	if c.Vendor.LoginMarker == "" {
		return fmt.Errorf("vendor.login_marker must not be empty")
	}
	if c.Vendor.LoginTimeout <= 0 {
		return fmt.Errorf("vendor.login_timeout must be a positive duration")
	}
	if c.Vendor.PageTimeout <= 0 {
		return fmt.Errorf("vendor.page_timeout must be a positive duration")
	}
	if c.Browser.LaunchTimeout <= 0 {
		return fmt.Errorf("browser.launch_timeout must be a positive duration")
	}
	if err := c.Download.Validate(); err != nil {
		return fmt.Errorf("download configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the download poller settings.
func (d *DownloadConfig) Validate() error {
	if d.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if len(d.PartialSuffixes) == 0 {
		return fmt.Errorf("partial_suffixes must list at least one suffix")
	}
	return nil
}
