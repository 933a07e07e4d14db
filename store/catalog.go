package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cultivai/cropvision/croplabel"
)

const defaultCategory = "Otros"

// SeedCatalog inserts every supported entry of the table that is not yet in
// the catalogue, keyed by its localized name. It returns the number of crops
// added.
func (s *Store) SeedCatalog(ctx context.Context, table *croplabel.Table) (int, error) {
	if table == nil {
		return 0, errors.New("seed catalog: table is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, e := range table.Entries() {
		if !e.Supported || e.Name == "" {
			continue
		}
		category := e.Category
		if category == "" {
			category = defaultCategory
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO sembrios (id, nombre, nombre_key, categoria) VALUES (?, ?, ?, ?)
			 ON CONFLICT(nombre_key) DO NOTHING`,
			s.newID(), e.Name, croplabel.FoldKey(e.Name), category)
		if err != nil {
			return 0, fmt.Errorf("insert crop %q: %w", e.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return added, nil
}

// UpdateCropDetails sets the icon and the descriptive text of a crop.
func (s *Store) UpdateCropDetails(ctx context.Context, cropID, icon, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `UPDATE sembrios SET icon = ?, detalles = ? WHERE id = ?`,
		strings.TrimSpace(icon), strings.TrimSpace(details), cropID)
	if err != nil {
		return fmt.Errorf("update crop: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCropNotFound
	}
	return nil
}

// Catalog lists crops matching the filter, ordered by name.
func (s *Store) Catalog(ctx context.Context, filter CatalogFilter) ([]Crop, error) {
	query := `SELECT id, nombre, categoria, icon, detalles FROM sembrios WHERE 1=1`
	var args []any
	if key := croplabel.FoldKey(filter.Query); key != "" {
		query += ` AND instr(nombre_key, ?) > 0`
		args = append(args, key)
	}
	if c := strings.TrimSpace(filter.Category); c != "" && c != AllCategories {
		query += ` AND categoria = ?`
		args = append(args, c)
	}
	query += ` ORDER BY nombre_key`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()
	return scanCrops(rows)
}

// Categories lists the distinct catalogue categories in order.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT categoria FROM sembrios ORDER BY categoria`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindCropByName looks a crop up by its localized name, ignoring case.
func (s *Store) FindCropByName(ctx context.Context, name string) (*Crop, error) {
	key := croplabel.FoldKey(name)
	if key == "" {
		return nil, ErrCropNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, nombre, categoria, icon, detalles FROM sembrios WHERE nombre_key = ?`, key)
	return scanCrop(row)
}

// GetCrop returns the crop with the given id.
func (s *Store) GetCrop(ctx context.Context, id string) (*Crop, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, nombre, categoria, icon, detalles FROM sembrios WHERE id = ?`, id)
	return scanCrop(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCrop(row scanner) (*Crop, error) {
	var c Crop
	if err := row.Scan(&c.ID, &c.Name, &c.Category, &c.Icon, &c.Details); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCropNotFound
		}
		return nil, fmt.Errorf("scan crop: %w", err)
	}
	return &c, nil
}

func scanCrops(rows *sql.Rows) ([]Crop, error) {
	var out []Crop
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
