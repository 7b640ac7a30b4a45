package config

// DefaultMaxNoteBytes bounds the size of a submitted note.
const DefaultMaxNoteBytes = 1 << 20

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	if cfg.Server.MaxNoteBytes == 0 {
		cfg.Server.MaxNoteBytes = DefaultMaxNoteBytes
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/specialist-aid/data/catalogue.db"
	}
	if cfg.Corpus.DebounceMillis == 0 {
		cfg.Corpus.DebounceMillis = 400
	}
	if cfg.Matcher.TopK == 0 {
		cfg.Matcher.TopK = 5
	}
	if cfg.Matcher.MinSimilarity == 0 {
		cfg.Matcher.MinSimilarity = 0.1
	}
	if cfg.Matcher.MaxFeatures == 0 {
		cfg.Matcher.MaxFeatures = 1000
	}
	if cfg.Matcher.NGramMax == 0 {
		cfg.Matcher.NGramMax = 2
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.Fuzziness == 0 {
		cfg.Search.Fuzziness = 1
	}
}
