package models

import "time"

// EngineStatus describes the published condition index.
type EngineStatus struct {
	Ready             bool       `json:"ready"`
	Conditions        int        `json:"conditions"`
	Features          int        `json:"features"`
	BuiltAt           *time.Time `json:"built_at,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
	VocabularyVersion string     `json:"vocabulary_version"`
	Keywords          int        `json:"keywords"`
}

// CatalogStatus describes the reference-data catalogue.
type CatalogStatus struct {
	Conditions        int64         `json:"conditions"`
	BasketItems       int64         `json:"basket_items"`
	LastConditions    *ImportRecord `json:"last_conditions_import,omitempty"`
	LastBaskets       *ImportRecord `json:"last_baskets_import,omitempty"`
	DatabasePath      string        `json:"database_path,omitempty"`
	DatabaseSizeBytes *int64        `json:"database_size_bytes,omitempty"`
}

// StatusResponse is the shape of GET /api/v1/status.
type StatusResponse struct {
	Version string         `json:"version"`
	Engine  EngineStatus   `json:"engine"`
	Catalog *CatalogStatus `json:"catalog,omitempty"`
	Watched []string       `json:"watched_files,omitempty"`
}
