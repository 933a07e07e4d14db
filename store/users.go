package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// CreateUser registers a grower. Emails are unique, ignoring case.
func (s *Store) CreateUser(ctx context.Context, name, email string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, errors.New("create user: name and email are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return nil, ErrDuplicateEmail
	}
	u := &User{ID: s.newID(), Name: name, Email: email, CropIDs: []string{}}
	created := s.timestamp()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, nombre, email, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, created); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	u.CreatedAt = parseTimestamp(created)
	return u, nil
}

// GetUser returns the user with the ids of the crops they follow.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, nombre, email, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTimestamp(created)

	rows, err := s.db.QueryContext(ctx,
		`SELECT sembrio_id FROM user_sembrios WHERE user_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("query user crops: %w", err)
	}
	defer rows.Close()
	u.CropIDs = []string{}
	for rows.Next() {
		var cropID string
		if err := rows.Scan(&cropID); err != nil {
			return nil, err
		}
		u.CropIDs = append(u.CropIDs, cropID)
	}
	return &u, rows.Err()
}

// AddUserCrop starts following a crop.
func (s *Store) AddUserCrop(ctx context.Context, userID, cropID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUserAndCrop(ctx, s.db, userID, cropID); err != nil {
		return err
	}
	owned, err := s.owns(ctx, userID, cropID)
	if err != nil {
		return err
	}
	if owned {
		return ErrAlreadyOwned
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO user_sembrios (user_id, sembrio_id, added_at) VALUES (?, ?, ?)`,
		userID, cropID, s.timestamp()); err != nil {
		return fmt.Errorf("add user crop: %w", err)
	}
	return nil
}

// SetUserCrops replaces the followed crops with cropIDs. Notes and images of
// crops no longer followed are removed with them.
func (s *Store) SetUserCrops(ctx context.Context, userID string, cropIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set crops: %w", err)
	}
	defer tx.Rollback()

	if err := s.checkUser(ctx, tx, userID); err != nil {
		return err
	}
	keep := make(map[string]struct{}, len(cropIDs))
	for _, id := range cropIDs {
		if err := s.checkCrop(ctx, tx, id); err != nil {
			return fmt.Errorf("crop %q: %w", id, err)
		}
		keep[id] = struct{}{}
	}

	rows, err := tx.QueryContext(ctx, `SELECT sembrio_id FROM user_sembrios WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("query user crops: %w", err)
	}
	current := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		current[id] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for id := range current {
		if _, ok := keep[id]; ok {
			continue
		}
		for _, stmt := range []string{
			`DELETE FROM notas WHERE user_id = ? AND sembrio_id = ?`,
			`DELETE FROM imagenes WHERE user_id = ? AND sembrio_id = ?`,
			`DELETE FROM user_sembrios WHERE user_id = ? AND sembrio_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, userID, id); err != nil {
				return fmt.Errorf("remove user crop: %w", err)
			}
		}
	}
	now := s.timestamp()
	for _, id := range cropIDs {
		if _, ok := current[id]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_sembrios (user_id, sembrio_id, added_at) VALUES (?, ?, ?)`,
			userID, id, now); err != nil {
			return fmt.Errorf("add user crop: %w", err)
		}
	}
	return tx.Commit()
}

// UserCrops lists the crops a user follows in the order they were added.
func (s *Store) UserCrops(ctx context.Context, userID string) ([]Crop, error) {
	if err := s.checkUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.nombre, c.categoria, c.icon, c.detalles
		FROM user_sembrios u JOIN sembrios c ON c.id = u.sembrio_id
		WHERE u.user_id = ?
		ORDER BY u.rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user crops: %w", err)
	}
	defer rows.Close()
	return scanCrops(rows)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) checkUser(ctx context.Context, q querier, userID string) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE id = ?`, userID).Scan(&n); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) checkCrop(ctx context.Context, q querier, cropID string) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM sembrios WHERE id = ?`, cropID).Scan(&n); err != nil {
		return fmt.Errorf("check crop: %w", err)
	}
	if n == 0 {
		return ErrCropNotFound
	}
	return nil
}

func (s *Store) checkUserAndCrop(ctx context.Context, q querier, userID, cropID string) error {
	if err := s.checkUser(ctx, q, userID); err != nil {
		return err
	}
	return s.checkCrop(ctx, q, cropID)
}

func (s *Store) owns(ctx context.Context, userID, cropID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM user_sembrios WHERE user_id = ? AND sembrio_id = ?`, userID, cropID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check ownership: %w", err)
	}
	return n > 0, nil
}
