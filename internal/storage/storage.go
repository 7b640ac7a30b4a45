// Package storage defines the reference-data catalogue: chronic conditions, treatment
// basket items and the import log.
package storage

import (
	"context"
	"errors"

	"github.com/salulink/specialist-aid/internal/models"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// Catalog defines reference-data persistence operations.
type Catalog interface {
	// Condition operations
	ReplaceConditions(ctx context.Context, conditions []models.ChronicCondition) error
	ListConditions(ctx context.Context) ([]models.ChronicCondition, error)
	GetConditionByCode(ctx context.Context, code string) (*models.ChronicCondition, error)

	// Basket operations
	ReplaceBaskets(ctx context.Context, items []models.BasketItem) error
	GetBaskets(ctx context.Context, code string) (*models.ConditionWithBaskets, error)

	// Import log
	RecordImport(ctx context.Context, rec *models.ImportRecord) error
	LastImport(ctx context.Context, kind models.ImportKind) (*models.ImportRecord, error)

	// Stats
	CountConditions(ctx context.Context) (int64, error)
	CountBasketItems(ctx context.Context) (int64, error)

	Close() error
}
