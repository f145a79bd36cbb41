package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/moviesearch/internal/domain"
)

// defaultTemplate is used when no config/<env>.yaml exists; it maps the
// documented environment variables onto the config tree.
//
//go:embed default.yaml
var defaultTemplate []byte

// Embedding provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds the moviesearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig holds the hosted search index settings.
type SearchConfig struct {
	Endpoint              string `yaml:"endpoint"`
	APIKey                string `yaml:"api_key"`
	Index                 string `yaml:"index"`
	SemanticConfiguration string `yaml:"semantic_configuration"` // only used in semantic mode
	APIVersion            string `yaml:"api_version"`
	VectorField           string `yaml:"vector_field"`
	Select                string `yaml:"select"`
	TimeoutSec            int    `yaml:"timeout_sec"`
}

// Timeout returns the search HTTP timeout.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// EmbeddingConfig holds embedding service settings.
type EmbeddingConfig struct {
	Provider         string      `yaml:"provider"` // ollama, openai (default: ollama)
	Endpoint         string      `yaml:"endpoint"`
	Model            string      `yaml:"model"`
	APIKey           string      `yaml:"api_key"`
	Dimension        string      `yaml:"dimension"` // kept raw so a non-numeric value is reported, not silently zeroed
	QueryInstruction string      `yaml:"query_instruction"`
	TimeoutSec       int         `yaml:"timeout_sec"`
	Probe            ProbeConfig `yaml:"probe"`
}

// Dimensions returns the expected vector length. Valid only after Validate succeeded.
func (e EmbeddingConfig) Dimensions() int {
	n, _ := strconv.Atoi(strings.TrimSpace(e.Dimension))
	return n
}

// Timeout returns the embedding HTTP timeout.
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSec) * time.Second
}

// ProbeConfig holds the embedding reachability probe settings.
type ProbeConfig struct {
	TTLSec     int `yaml:"ttl_sec"`
	TimeoutSec int `yaml:"timeout_sec"`
}

// CacheConfig holds the optional Redis/Valkey embedding cache settings.
type CacheConfig struct {
	Addr     string `yaml:"addr"` // empty disables the cache
	Password string `yaml:"password"`
	TTLSec   int    `yaml:"ttl_sec"`
}

// Enabled reports whether the embedding cache is configured.
func (c CacheConfig) Enabled() bool { return c.Addr != "" }

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already present in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration by environment name (local, dev, prod).
// Falls back to the embedded environment-variable template when no file exists.
func Load(env string) (Config, error) {
	data, err := readConfig(env)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse expands ${VAR} references in raw YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8501
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// must outlive embedding + search timeouts
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.APIVersion == "" {
		c.Search.APIVersion = "2024-07-01"
	}
	if c.Search.VectorField == "" {
		c.Search.VectorField = "embedding"
	}
	if c.Search.Select == "" {
		c.Search.Select = "movie_id,title,overview,tagline,genres"
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 30
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOllama
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 60
	}
	if c.Embedding.Probe.TTLSec <= 0 {
		c.Embedding.Probe.TTLSec = 60
	}
	if c.Embedding.Probe.TimeoutSec <= 0 {
		c.Embedding.Probe.TimeoutSec = 5
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	missing := func(key, envVar string) {
		errs = append(errs, fmt.Errorf("%s (%s) is not set", key, envVar))
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.Search.Endpoint == "" {
		missing("search.endpoint", "AZURE_SEARCH_SERVICE_ENDPOINT")
	} else if u, err := url.Parse(c.Search.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("search.endpoint %q is not an absolute URL", c.Search.Endpoint))
	}
	if c.Search.APIKey == "" {
		missing("search.api_key", "AZURE_SEARCH_API_KEY")
	}
	if c.Search.Index == "" {
		missing("search.index", "AZURE_SEARCH_INDEX_NAME")
	}

	if c.Embedding.Endpoint == "" {
		missing("embedding.endpoint", "OLLAMA_ENDPOINT")
	}
	if c.Embedding.Model == "" {
		missing("embedding.model", "OLLAMA_MODEL")
	}
	switch dim := strings.TrimSpace(c.Embedding.Dimension); {
	case dim == "":
		missing("embedding.dimension", "VECTOR_DIMENSION")
	default:
		n, err := strconv.Atoi(dim)
		if err != nil {
			errs = append(errs, fmt.Errorf("embedding.dimension (%q) is not a valid integer", dim))
		} else if n <= 0 {
			errs = append(errs, fmt.Errorf("embedding.dimension must be positive, got %d", n))
		}
	}
	switch c.Embedding.Provider {
	case ProviderOllama, ProviderOpenAI:
		// ok
	default:
		errs = append(errs, fmt.Errorf(
			"embedding.provider must be %q or %q, got %q", ProviderOllama, ProviderOpenAI, c.Embedding.Provider,
		))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
}

// readConfig locates config/<env>.yaml or returns the embedded template.
func readConfig(env string) ([]byte, error) {
	configPath, ok := findConfigPath(env)
	if !ok {
		return defaultTemplate, nil
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return data, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) (string, bool) {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path, true
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path, true
	}

	return "", false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
