package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Kimo configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Models  ModelsConfig  `yaml:"models"`
	GenAI   GenAIConfig   `yaml:"genai"`
	Search  SearchConfig  `yaml:"search"`
	Server  ServerConfig  `yaml:"server"`
	Refresh RefreshConfig `yaml:"refresh"`
	Log     LogConfig     `yaml:"log"`
}

// StoreConfig selects where session history and preferences persist.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite", "file", "memory"
	Path   string `yaml:"path"`
}

// ModelsConfig holds local model asset settings.
type ModelsConfig struct {
	ImageModelPath   string `yaml:"image_model"`
	LabelsPath       string `yaml:"labels"`
	EncoderModelPath string `yaml:"encoder_model"`
	VocabPath        string `yaml:"vocab"`
	CorpusDir        string `yaml:"corpus_dir"`
	LibraryPath      string `yaml:"onnx_library"`
	TopK             int    `yaml:"top_k"`
	BestEffort       bool   `yaml:"best_effort"`
}

// GenAIConfig configures the hosted model used for handwriting, answers
// and transcription.
type GenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type SearchConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RefreshConfig controls background revalidation of model assets. A zero
// interval disables it.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
	Watch    bool          `yaml:"watch"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

var validDrivers = map[string]bool{"sqlite": true, "file": true, "memory": true}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{Driver: "sqlite", Path: "kimo.db"},
		Models: ModelsConfig{
			ImageModelPath:   "models/mobilenet_v2.onnx",
			LabelsPath:       "models/imagenet_labels.txt",
			EncoderModelPath: "models/encoder.onnx",
			VocabPath:        "models/vocab.txt",
			CorpusDir:        "corpus",
			TopK:             3,
		},
		GenAI:   GenAIConfig{Model: "gemini-2.5-flash"},
		Search:  SearchConfig{Endpoint: "https://api.duckduckgo.com/", Timeout: 5 * time.Second},
		Server:  ServerConfig{Addr: ":8080"},
		Refresh: RefreshConfig{Interval: time.Hour, Watch: true},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or KIMO_CONFIG when path is empty), then environment variables. Later
// sources win.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("KIMO_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Store.Driver = getenv("KIMO_STORE", c.Store.Driver)
	c.Store.Path = getenv("KIMO_STORE_PATH", c.Store.Path)

	c.Models.ImageModelPath = getenv("KIMO_IMAGE_MODEL", c.Models.ImageModelPath)
	c.Models.LabelsPath = getenv("KIMO_LABELS", c.Models.LabelsPath)
	c.Models.EncoderModelPath = getenv("KIMO_ENCODER_MODEL", c.Models.EncoderModelPath)
	c.Models.VocabPath = getenv("KIMO_VOCAB", c.Models.VocabPath)
	c.Models.CorpusDir = getenv("KIMO_CORPUS_DIR", c.Models.CorpusDir)
	c.Models.LibraryPath = getenv("KIMO_ONNX_LIBRARY", c.Models.LibraryPath)
	c.Models.TopK = getenvInt("KIMO_TOP_K", c.Models.TopK)
	c.Models.BestEffort = getenvBool("KIMO_BEST_EFFORT", c.Models.BestEffort)

	c.GenAI.APIKey = getenv("KIMO_GENAI_API_KEY", getenv("GEMINI_API_KEY", c.GenAI.APIKey))
	c.GenAI.Model = getenv("KIMO_GENAI_MODEL", c.GenAI.Model)

	c.Search.Endpoint = getenv("KIMO_SEARCH_ENDPOINT", c.Search.Endpoint)
	c.Search.Timeout = getenvDuration("KIMO_SEARCH_TIMEOUT", c.Search.Timeout)

	c.Server.Addr = getenv("KIMO_ADDR", c.Server.Addr)

	c.Refresh.Interval = getenvDuration("KIMO_REFRESH_INTERVAL", c.Refresh.Interval)
	c.Refresh.Watch = getenvBool("KIMO_REFRESH_WATCH", c.Refresh.Watch)

	c.Log.Level = getenv("KIMO_LOG_LEVEL", c.Log.Level)
	c.Log.File = getenv("KIMO_LOG_FILE", c.Log.File)
}

// Validate reports every invalid setting at once. Missing model files are
// not errors; the affected features are degraded at startup instead.
func (c Config) Validate() error {
	var errs []error
	if !validDrivers[c.Store.Driver] {
		errs = append(errs, fmt.Errorf("KIMO_STORE: unknown driver %q", c.Store.Driver))
	}
	if c.Store.Driver != "memory" && c.Store.Path == "" {
		errs = append(errs, errors.New("KIMO_STORE_PATH: required for driver "+c.Store.Driver))
	}
	if c.Models.TopK < 1 {
		errs = append(errs, fmt.Errorf("KIMO_TOP_K: must be at least 1, got %d", c.Models.TopK))
	}
	if c.Search.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("KIMO_SEARCH_TIMEOUT: must be positive, got %s", c.Search.Timeout))
	}
	if c.Refresh.Interval < 0 {
		errs = append(errs, fmt.Errorf("KIMO_REFRESH_INTERVAL: must not be negative, got %s", c.Refresh.Interval))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("KIMO_LOG_LEVEL: unknown level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
