package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
matcher:
  top_k: 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Matcher.TopK != 3 {
		t.Errorf("top_k = %d, want 3", cfg.Matcher.TopK)
	}
	if cfg.Matcher.MaxFeatures != 1000 {
		t.Errorf("max_features default = %d, want 1000", cfg.Matcher.MaxFeatures)
	}
	if cfg.Corpus.ConditionsPath != "" {
		t.Errorf("conditions_path should stay empty, got %q", cfg.Corpus.ConditionsPath)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/catalogue.db"
corpus:
  conditions_path: "./data/chronic_conditions.xlsx"
  baskets_path: "./data/treatment_baskets.csv"
vocabulary:
  path: "./vocabulary.yaml"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"database_path", cfg.Storage.DatabasePath, filepath.Join(dir, "data", "catalogue.db")},
		{"conditions_path", cfg.Corpus.ConditionsPath, filepath.Join(dir, "data", "chronic_conditions.xlsx")},
		{"baskets_path", cfg.Corpus.BasketsPath, filepath.Join(dir, "data", "treatment_baskets.csv")},
		{"vocabulary", cfg.Vocabulary.Path, filepath.Join(dir, "vocabulary.yaml")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %s, want %s", tt.name, tt.got, tt.want)
		}
	}
	if files := cfg.Corpus.Files(); len(files) != 2 {
		t.Errorf("Files() = %v, want 2 entries", files)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxNoteBytes != DefaultMaxNoteBytes {
		t.Errorf("default max_note_bytes: got %d", cfg.Server.MaxNoteBytes)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("default allowed origins: got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("default limit: got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Matcher.TopK != 5 || cfg.Matcher.MinSimilarity != 0.1 || cfg.Matcher.NGramMax != 2 {
		t.Errorf("matcher defaults: got %+v", cfg.Matcher)
	}
	if cfg.Corpus.DebounceMillis != 400 {
		t.Errorf("debounce default: got %d", cfg.Corpus.DebounceMillis)
	}
	if cfg.Corpus.Watch {
		t.Error("watch should default to false")
	}
}

func TestApplyDefaults_KeepsExplicitEmptyOrigins(t *testing.T) {
	cfg := &Config{Server: ServerConfig{AllowedOrigins: []string{}}}
	ApplyDefaults(cfg)
	if len(cfg.Server.AllowedOrigins) != 0 {
		t.Errorf("explicit empty origins should be kept, got %v", cfg.Server.AllowedOrigins)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SPECIALIST_AID_HOST", "0.0.0.0")
	t.Setenv("SPECIALIST_AID_PORT", "9191")
	t.Setenv("SPECIALIST_AID_DEBUG", "true")
	t.Setenv("SPECIALIST_AID_WATCH", "1")
	t.Setenv("SPECIALIST_AID_CONDITIONS_PATH", "/data/conditions.csv")
	t.Setenv("SPECIALIST_AID_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Default()
	if err := ApplyEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9191 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if !cfg.Debug || !cfg.Corpus.Watch {
		t.Errorf("debug=%v watch=%v, want both true", cfg.Debug, cfg.Corpus.Watch)
	}
	if cfg.Corpus.ConditionsPath != "/data/conditions.csv" {
		t.Errorf("conditions path = %q", cfg.Corpus.ConditionsPath)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", "SPECIALIST_AID_PORT", "http"},
		{"port out of range", "SPECIALIST_AID_PORT", "70000"},
		{"debug not bool", "SPECIALIST_AID_DEBUG", "maybe"},
		{"watch not bool", "SPECIALIST_AID_WATCH", "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if err := ApplyEnv(Default()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Storage.DatabasePath != "/tmp/db" {
		t.Errorf("loaded database path: got %s", loaded.Storage.DatabasePath)
	}
}
