package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Environment variables read by the inventory.
const (
	EnvRepoRoot       = "CODEREFS_REPO_ROOT"
	EnvResultsFolder  = "CODEREFS_RESULTS_FOLDER"
	EnvGitHubUser     = "GITHUB_USER"
	EnvGitHubToken    = "GITHUB_ACCESS_TOKEN"
	DefaultResultsDir = "data"
)

// Config represents the complete inventory configuration
type Config struct {
	Version       int    `json:"version" mapstructure:"version"`
	ResultsFolder string `json:"resultsFolder" mapstructure:"resultsFolder"`
	// StrictAbort keeps the abort-whole-document behaviour for malformed
	// :::code directives. When false only the offending line is skipped.
	StrictAbort bool `json:"strictAbort" mapstructure:"strictAbort"`
	Workers     int  `json:"workers" mapstructure:"workers"`

	Content  []Docset       `json:"content" mapstructure:"content"`
	Metadata MetadataConfig `json:"metadata" mapstructure:"metadata"`
	GitHub   GitHubConfig   `json:"github" mapstructure:"github"`
	Artifact ArtifactConfig `json:"artifact" mapstructure:"artifact"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// Docset is one documentation set to inventory.
type Docset struct {
	Repo           string   `json:"repo" mapstructure:"repo"`
	Path           string   `json:"path" mapstructure:"path"`
	OpcFolder      string   `json:"opc_folder" mapstructure:"opc_folder"`
	DocfxFolder    string   `json:"docfx_folder" mapstructure:"docfx_folder"`
	URL            string   `json:"url" mapstructure:"url"`
	Disabled       bool     `json:"disabled" mapstructure:"disabled"`
	ExcludeFolders []string `json:"exclude_folders" mapstructure:"exclude_folders"`
}

// Name returns the short docset name used for output files.
func (d Docset) Name() string {
	if i := strings.LastIndex(d.Repo, "/"); i >= 0 {
		return d.Repo[i+1:]
	}
	return d.Repo
}

// MetadataConfig lists the article metadata fields carried into the inventory.
type MetadataConfig struct {
	Fields []string `json:"fields" mapstructure:"fields"`
}

// GitHubConfig controls the commit history enrichment
type GitHubConfig struct {
	Enabled         bool   `json:"enabled" mapstructure:"enabled"`
	APIBaseURL      string `json:"apiBaseUrl" mapstructure:"apiBaseUrl"`
	User            string `json:"user" mapstructure:"user"`
	Token           string `json:"token" mapstructure:"token"`
	TimeoutMs       int    `json:"timeoutMs" mapstructure:"timeoutMs"`
	CacheSize       int    `json:"cacheSize" mapstructure:"cacheSize"`
	CacheTtlSeconds int    `json:"cacheTtlSeconds" mapstructure:"cacheTtlSeconds"`
}

// ArtifactConfig configures upload of the CSV results to S3-compatible storage
type ArtifactConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint  string `json:"endpoint" mapstructure:"endpoint"`
	Region    string `json:"region" mapstructure:"region"`
	AccessKey string `json:"accessKey" mapstructure:"accessKey"`
	SecretKey string `json:"secretKey" mapstructure:"secretKey"`
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	UseSSL    bool   `json:"useSSL" mapstructure:"useSSL"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:       1,
		ResultsFolder: DefaultResultsDir,
		StrictAbort:   true,
		Workers:       4,
		Metadata: MetadataConfig{
			Fields: []string{"ms.author", "ms.reviewer", "ms.date"},
		},
		GitHub: GitHubConfig{
			Enabled:         false,
			APIBaseURL:      "https://api.github.com",
			TimeoutMs:       15000,
			CacheSize:       2048,
			CacheTtlSeconds: 86400,
		},
		Artifact: ArtifactConfig{
			Region: "us-east-1",
			Bucket: "coderefs-inventory",
			UseSSL: true,
		},
		Logging: LoggingConfig{
			Format: "",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from the given file. The format follows the
// file extension (json, yaml, toml). Unset keys keep their defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("resultsFolder", d.ResultsFolder)
	v.SetDefault("strictAbort", d.StrictAbort)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("metadata.fields", d.Metadata.Fields)
	v.SetDefault("github.enabled", d.GitHub.Enabled)
	v.SetDefault("github.apiBaseUrl", d.GitHub.APIBaseURL)
	v.SetDefault("github.timeoutMs", d.GitHub.TimeoutMs)
	v.SetDefault("github.cacheSize", d.GitHub.CacheSize)
	v.SetDefault("github.cacheTtlSeconds", d.GitHub.CacheTtlSeconds)
	v.SetDefault("artifact.region", d.Artifact.Region)
	v.SetDefault("artifact.bucket", d.Artifact.Bucket)
	v.SetDefault("artifact.useSSL", d.Artifact.UseSSL)
	v.SetDefault("logging.level", d.Logging.Level)
}

// applyEnv fills settings that come from the environment rather than the file.
func (c *Config) applyEnv() {
	if env := os.Getenv(EnvResultsFolder); env != "" {
		c.ResultsFolder = env
	}
	if c.GitHub.User == "" {
		c.GitHub.User = os.Getenv(EnvGitHubUser)
	}
	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv(EnvGitHubToken)
	}
}

// Save writes the configuration as indented JSON
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if len(c.Content) == 0 {
		return &ConfigError{Field: "content", Message: "no docsets configured"}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Message: "must not be negative"}
	}
	if c.Artifact.Enabled && (c.Artifact.Endpoint == "" || c.Artifact.Bucket == "") {
		return &ConfigError{Field: "artifact", Message: "endpoint and bucket are required when enabled"}
	}
	return nil
}

// Find returns the docset whose repo or short name matches name.
func (c *Config) Find(name string) (Docset, bool) {
	for _, ds := range c.Content {
		if ds.Repo == name || ds.Name() == name {
			return ds, true
		}
	}
	return Docset{}, false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
