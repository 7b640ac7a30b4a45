// Package config provides configuration loading and structs for the Specialist Aid service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Matcher    MatcherConfig    `yaml:"matcher"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Search     SearchConfig     `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxNoteBytes   int      `yaml:"max_note_bytes"`
}

// StorageConfig holds the catalogue database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CorpusConfig points at the reference-data files. Either may be empty: without a
// conditions file the catalogue's last import is served.
type CorpusConfig struct {
	ConditionsPath string `yaml:"conditions_path"`
	BasketsPath    string `yaml:"baskets_path"`
	Watch          bool   `yaml:"watch"`
	DebounceMillis int    `yaml:"debounce_ms"`
}

// Files returns the configured corpus files.
func (c *CorpusConfig) Files() []string {
	var out []string
	if c.ConditionsPath != "" {
		out = append(out, c.ConditionsPath)
	}
	if c.BasketsPath != "" {
		out = append(out, c.BasketsPath)
	}
	return out
}

// MatcherConfig holds TF-IDF and ranking settings.
type MatcherConfig struct {
	TopK          int     `yaml:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity"`
	MaxFeatures   int     `yaml:"max_features"`
	NGramMax      int     `yaml:"ngram_max"`
}

// VocabularyConfig selects the term lists; an empty path uses the built-in vocabulary.
type VocabularyConfig struct {
	Path string `yaml:"path"`
}

// SearchConfig holds condition search settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	Fuzziness    int `yaml:"fuzziness"`
}

// Default returns a config with every default applied and no corpus files.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Corpus.ConditionsPath = expandPath(cfg.Corpus.ConditionsPath, configDir)
	cfg.Corpus.BasketsPath = expandPath(cfg.Corpus.BasketsPath, configDir)
	cfg.Vocabulary.Path = expandPath(cfg.Vocabulary.Path, configDir)

	return &cfg, nil
}

// Save writes the config to path. Used by init to write a starter file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
