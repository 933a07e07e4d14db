package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cultivai/cropvision/croplabel"
	"cultivai/cropvision/recommend"
	"cultivai/cropvision/vision"
	"cultivai/cropvision/weather"
)

const (
	DefaultConfigFile = "cropvision.yaml"

	ProviderCloud = "cloud"
	ProviderONNX  = "onnx"
)

// VisionConfig selects and configures the image classifier.
type VisionConfig struct {
	Provider string              `yaml:"provider"`
	Cloud    vision.CloudOptions `yaml:"cloud"`
	ONNX     vision.ONNXOptions  `yaml:"onnx"`
	CacheDir string              `yaml:"cache_dir"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Config is the cropvision configuration file.
type Config struct {
	Resolver     croplabel.ResolverConfig   `yaml:"resolver"`
	TableColumns croplabel.ColumnCandidates `yaml:"table_columns,omitempty"`
	Vision       VisionConfig               `yaml:"vision"`
	Weather      weather.Options            `yaml:"weather"`
	Recommend    recommend.Options          `yaml:"recommend"`
	Store        StoreConfig                `yaml:"store"`
	Logging      LoggingConfig              `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	cfg := Config{
		Resolver: croplabel.ResolverConfig{Variant: croplabel.VariantVision},
		Vision: VisionConfig{
			Provider: ProviderCloud,
			CacheDir: "./cache/vision",
			ONNX: vision.ONNXOptions{
				ModelPath:  "./models/mobilenetv2/model.onnx",
				LabelsPath: "./models/mobilenetv2/labels.txt",
			},
		},
		Store:   StoreConfig{Path: "./data/cultivai.db"},
		Logging: LoggingConfig{Level: "info", Encoding: "json"},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values and clamps invalid ones.
func (c *Config) ApplyDefaults() {
	c.Resolver.ApplyDefaults()
	c.Resolver.TableFile = strings.TrimSpace(c.Resolver.TableFile)

	c.Vision.Provider = strings.ToLower(strings.TrimSpace(c.Vision.Provider))
	switch c.Vision.Provider {
	case ProviderCloud, ProviderONNX:
	default:
		c.Vision.Provider = ProviderCloud
	}
	c.Vision.Cloud.ApplyDefaults()
	c.Vision.ONNX.ApplyDefaults()
	c.Vision.CacheDir = strings.TrimSpace(c.Vision.CacheDir)

	c.Weather.ApplyDefaults()
	c.Recommend.ApplyDefaults()

	c.Store.Path = strings.TrimSpace(c.Store.Path)
	if c.Store.Path == "" {
		c.Store.Path = "./data/cultivai.db"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		c.Logging.Encoding = "json"
	}
}

// LoadConfig reads the YAML file at path. A missing file yields the defaults.
// Environment variables override API keys and the backend URL.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// SaveConfig writes cfg to path through a temporary file.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = DefaultConfigFile
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("GOOGLE_VISION_API_KEY")); v != "" {
		cfg.Vision.Cloud.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
		cfg.Recommend.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); v != "" && cfg.Recommend.APIKey == "" {
		cfg.Recommend.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("CULTIVAI_API_URL")); v != "" {
		cfg.Weather.BaseURL = v
		cfg.Weather.ApplyDefaults()
	}
}
