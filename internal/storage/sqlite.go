package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/salulink/specialist-aid/internal/models"
)

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteCatalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS conditions (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		icd10_code TEXT NOT NULL DEFAULT '',
		icd10_description TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_conditions_code ON conditions(icd10_code);

	CREATE TABLE IF NOT EXISTS basket_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		icd10_code TEXT NOT NULL,
		basket_type TEXT NOT NULL,
		procedure_description TEXT NOT NULL DEFAULT '',
		procedure_code TEXT NOT NULL DEFAULT '',
		coverage_limit INTEGER NOT NULL DEFAULT 0,
		specialist_coverage INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_basket_items_code ON basket_items(icd10_code);

	CREATE TABLE IF NOT EXISTS imports (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		digest TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		imported_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_imports_kind_time ON imports(kind, imported_at);
	`
	_, err := db.Exec(schema)
	return err
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ReplaceConditions swaps the whole condition table in one transaction, preserving order.
func (s *SQLiteCatalog) ReplaceConditions(ctx context.Context, conditions []models.ChronicCondition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conditions`); err != nil {
		return fmt.Errorf("failed to clear conditions: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO conditions (position, name, icd10_code, icd10_description)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range conditions {
		if _, err := stmt.ExecContext(ctx, i, c.Name, normalizeCode(c.ICD10Code), c.ICD10Description); err != nil {
			return fmt.Errorf("failed to insert condition %q: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

// ListConditions returns all conditions in import order.
func (s *SQLiteCatalog) ListConditions(ctx context.Context) ([]models.ChronicCondition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, icd10_code, icd10_description FROM conditions ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conditions := []models.ChronicCondition{}
	for rows.Next() {
		var c models.ChronicCondition
		if err := rows.Scan(&c.Name, &c.ICD10Code, &c.ICD10Description); err != nil {
			return nil, err
		}
		conditions = append(conditions, c)
	}
	return conditions, rows.Err()
}

// GetConditionByCode returns the first condition carrying code.
func (s *SQLiteCatalog) GetConditionByCode(ctx context.Context, code string) (*models.ChronicCondition, error) {
	var c models.ChronicCondition
	err := s.db.QueryRowContext(ctx,
		`SELECT name, icd10_code, icd10_description FROM conditions
		 WHERE icd10_code = ? ORDER BY position LIMIT 1`, normalizeCode(code),
	).Scan(&c.Name, &c.ICD10Code, &c.ICD10Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("condition %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ReplaceBaskets swaps the whole basket table in one transaction.
func (s *SQLiteCatalog) ReplaceBaskets(ctx context.Context, items []models.BasketItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM basket_items`); err != nil {
		return fmt.Errorf("failed to clear basket items: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO basket_items
		 (icd10_code, basket_type, procedure_description, procedure_code, coverage_limit, specialist_coverage)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx,
			normalizeCode(it.ICD10Code), string(it.BasketType), it.ProcedureDescription,
			it.ProcedureCode, it.CoverageLimit, it.SpecialistCoverage,
		); err != nil {
			return fmt.Errorf("failed to insert basket item for %s: %w", it.ICD10Code, err)
		}
	}
	return tx.Commit()
}

// GetBaskets returns the diagnostic and ongoing-management baskets for code. Condition
// fields come from the condition table when the code is known there.
func (s *SQLiteCatalog) GetBaskets(ctx context.Context, code string) (*models.ConditionWithBaskets, error) {
	code = normalizeCode(code)
	rows, err := s.db.QueryContext(ctx,
		`SELECT basket_type, procedure_description, procedure_code, coverage_limit, specialist_coverage
		 FROM basket_items WHERE icd10_code = ? ORDER BY id`, code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &models.ConditionWithBaskets{
		DiagnosticBasket:        []models.TreatmentBasket{},
		OngoingManagementBasket: []models.TreatmentBasket{},
	}
	found := 0
	for rows.Next() {
		var b models.TreatmentBasket
		var basketType string
		var specialist int
		if err := rows.Scan(&basketType, &b.ProcedureDescription, &b.ProcedureCode, &b.CoverageLimit, &specialist); err != nil {
			return nil, err
		}
		b.BasketType = models.BasketType(basketType)
		switch b.BasketType {
		case models.BasketDiagnostic:
			out.DiagnosticBasket = append(out.DiagnosticBasket, b)
		default:
			out.OngoingManagementBasket = append(out.OngoingManagementBasket, b)
		}
		if specialist > out.SpecialistCoverage {
			out.SpecialistCoverage = specialist
		}
		found++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if found == 0 {
		return nil, fmt.Errorf("baskets for %s: %w", code, ErrNotFound)
	}

	cond, err := s.GetConditionByCode(ctx, code)
	switch {
	case err == nil:
		out.Condition = *cond
	case errors.Is(err, ErrNotFound):
		out.Condition = models.ChronicCondition{ICD10Code: code}
	default:
		return nil, err
	}
	return out, nil
}

// RecordImport stores rec, assigning an ID and timestamp when unset.
func (s *SQLiteCatalog) RecordImport(ctx context.Context, rec *models.ImportRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (id, kind, source, digest, row_count, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), rec.Source, rec.Digest, rec.Rows, rec.ImportedAt,
	)
	return err
}

// LastImport returns the most recent import of kind.
func (s *SQLiteCatalog) LastImport(ctx context.Context, kind models.ImportKind) (*models.ImportRecord, error) {
	var rec models.ImportRecord
	var k string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, source, digest, row_count, imported_at FROM imports
		 WHERE kind = ? ORDER BY imported_at DESC, rowid DESC LIMIT 1`, string(kind),
	).Scan(&rec.ID, &k, &rec.Source, &rec.Digest, &rec.Rows, &rec.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s import: %w", kind, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	rec.Kind = models.ImportKind(k)
	return &rec, nil
}

// CountConditions returns the total number of conditions.
func (s *SQLiteCatalog) CountConditions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conditions`).Scan(&count)
	return count, err
}

// CountBasketItems returns the total number of basket rows.
func (s *SQLiteCatalog) CountBasketItems(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM basket_items`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteCatalog) Close() error {
	return s.db.Close()
}
