// Package config provides YAML-based configuration for the visualizer
// backend: content-store endpoints, dataset conventions, classifier
// thresholds and server settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort              = 8090
	DefaultBindAddress       = "127.0.0.1"
	DefaultBranch            = "master"
	DefaultMetadataFile      = "metadata.json"
	DefaultDetailFile        = "paths.json"
	DefaultArchi             = "wsn430"
	DefaultNodeDelta         = 0.0001
	DefaultClusterCell       = 0.05
	DefaultFetchTimeoutSec   = 30
	DefaultRequestTimeoutSec = 60
)

// Config is the root configuration document.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	ContentStore ContentStoreConfig `yaml:"content_store"`
	Dataset      DatasetConfig      `yaml:"dataset"`
	Quality      QualityConfig      `yaml:"quality"`
	View         ViewConfig         `yaml:"view"`
	Log          LogConfig          `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port             int    `yaml:"port"`
	BindAddress      string `yaml:"bind_address"`
	EnableCORS       bool   `yaml:"enable_cors"`
	AllowOrigins     string `yaml:"allow_origins"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	EnableRequestLog bool   `yaml:"enable_request_log"`
}

// ContentStoreConfig locates the remote dataset store. APIRoot serves
// directory listings (GET <api_root>/<path>?ref=<branch>), RawRoot
// serves raw documents (GET <raw_root>/<branch>/<path>).
type ContentStoreConfig struct {
	APIRoot        string `yaml:"api_root"`
	RawRoot        string `yaml:"raw_root"`
	Branch         string `yaml:"branch"`
	Root           string `yaml:"root"` // path prefix of the site directories, may be empty
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DatasetConfig describes the dataset layout conventions.
type DatasetConfig struct {
	MetadataFile string  `yaml:"metadata_file"` // per-site metadata document
	DetailFile   string  `yaml:"detail_file"`   // per-experiment paths document
	Archi        string  `yaml:"archi"`         // radio architecture rendered as markers
	NodeDelta    float64 `yaml:"node_delta"`    // degrees per node grid unit
}

// QualityConfig holds the classifier thresholds in PDR percent.
type QualityConfig struct {
	GoodThreshold float64 `yaml:"good_threshold"`
	BadThreshold  float64 `yaml:"bad_threshold"`
}

// ViewConfig holds presentation settings.
type ViewConfig struct {
	ClusterCellDegrees float64 `yaml:"cluster_cell_degrees"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses a YAML config file, filling in defaults and
// validating required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.BindAddress == "" {
		c.Server.BindAddress = DefaultBindAddress
	}
	if c.Server.TimeoutSeconds == 0 {
		c.Server.TimeoutSeconds = DefaultRequestTimeoutSec
	}
	if c.ContentStore.Branch == "" {
		c.ContentStore.Branch = DefaultBranch
	}
	if c.ContentStore.TimeoutSeconds == 0 {
		c.ContentStore.TimeoutSeconds = DefaultFetchTimeoutSec
	}
	if c.Dataset.MetadataFile == "" {
		c.Dataset.MetadataFile = DefaultMetadataFile
	}
	if c.Dataset.DetailFile == "" {
		c.Dataset.DetailFile = DefaultDetailFile
	}
	if c.Dataset.Archi == "" {
		c.Dataset.Archi = DefaultArchi
	}
	if c.Dataset.NodeDelta == 0 {
		c.Dataset.NodeDelta = DefaultNodeDelta
	}
	if c.Quality.GoodThreshold == 0 {
		c.Quality.GoodThreshold = 80
	}
	if c.Quality.BadThreshold == 0 {
		c.Quality.BadThreshold = 50
	}
	if c.View.ClusterCellDegrees == 0 {
		c.View.ClusterCellDegrees = DefaultClusterCell
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks required fields and threshold sanity.
func (c *Config) Validate() error {
	if c.ContentStore.APIRoot == "" {
		return fmt.Errorf("content_store.api_root is required")
	}
	if c.ContentStore.RawRoot == "" {
		return fmt.Errorf("content_store.raw_root is required")
	}
	if c.Quality.BadThreshold >= c.Quality.GoodThreshold {
		return fmt.Errorf("quality.bad_threshold (%v) must be below quality.good_threshold (%v)",
			c.Quality.BadThreshold, c.Quality.GoodThreshold)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// ServerAddr returns the listen address in host:port form.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// AllowedOrigins splits the configured CORS origins, defaulting to "*".
func (c *Config) AllowedOrigins() []string {
	if strings.TrimSpace(c.Server.AllowOrigins) == "" {
		return []string{"*"}
	}
	parts := strings.Split(c.Server.AllowOrigins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
