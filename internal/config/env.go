package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "SPECIALIST_AID_"

// ApplyEnv overrides cfg from SPECIALIST_AID_* environment variables. It runs after Load
// so that deployment settings win over the file.
func ApplyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("HOST", &cfg.Server.Host)
	str("DATABASE_PATH", &cfg.Storage.DatabasePath)
	str("CONDITIONS_PATH", &cfg.Corpus.ConditionsPath)
	str("BASKETS_PATH", &cfg.Corpus.BasketsPath)
	str("VOCABULARY_PATH", &cfg.Vocabulary.Path)

	if v, ok := os.LookupEnv(EnvPrefix + "PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %sPORT %q", EnvPrefix, v)
		}
		cfg.Server.Port = port
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sDEBUG %q: %w", EnvPrefix, v, err)
		}
		cfg.Debug = debug
	}
	if v, ok := os.LookupEnv(EnvPrefix + "WATCH"); ok && v != "" {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sWATCH %q: %w", EnvPrefix, v, err)
		}
		cfg.Corpus.Watch = watch
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
	return nil
}
