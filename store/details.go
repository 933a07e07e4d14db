package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AddNote stores a note for a crop the user follows.
func (s *Store) AddNote(ctx context.Context, userID, cropID, content string) (*Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("add note: content is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOwned(ctx, userID, cropID); err != nil {
		return nil, err
	}
	n := &Note{ID: s.newID(), UserID: userID, CropID: cropID, Content: content}
	created := s.timestamp()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO notas (id, user_id, sembrio_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.ID, userID, cropID, content, created); err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	n.CreatedAt = parseTimestamp(created)
	return n, nil
}

// Notes lists a crop's notes oldest first. A crop the user does not follow
// has no notes.
func (s *Store) Notes(ctx context.Context, userID, cropID string) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, created_at FROM notas WHERE user_id = ? AND sembrio_id = ? ORDER BY rowid`,
		userID, cropID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()
	out := []Note{}
	for rows.Next() {
		n := Note{UserID: userID, CropID: cropID}
		var created string
		if err := rows.Scan(&n.ID, &n.Content, &created); err != nil {
			return nil, err
		}
		n.CreatedAt = parseTimestamp(created)
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeleteNote removes one note.
func (s *Store) DeleteNote(ctx context.Context, userID, cropID, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notas WHERE id = ? AND user_id = ? AND sembrio_id = ?`, noteID, userID, cropID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// AddImage records a photo URL for a crop the user follows.
func (s *Store) AddImage(ctx context.Context, userID, cropID, url string) (*Image, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("add image: url is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOwned(ctx, userID, cropID); err != nil {
		return nil, err
	}
	img := &Image{ID: s.newID(), UserID: userID, CropID: cropID, URL: url}
	created := s.timestamp()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO imagenes (id, user_id, sembrio_id, url, created_at) VALUES (?, ?, ?, ?, ?)`,
		img.ID, userID, cropID, url, created); err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}
	img.CreatedAt = parseTimestamp(created)
	return img, nil
}

// Images lists a crop's photos oldest first.
func (s *Store) Images(ctx context.Context, userID, cropID string) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, created_at FROM imagenes WHERE user_id = ? AND sembrio_id = ? ORDER BY rowid`,
		userID, cropID)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()
	out := []Image{}
	for rows.Next() {
		img := Image{UserID: userID, CropID: cropID}
		var created string
		if err := rows.Scan(&img.ID, &img.URL, &created); err != nil {
			return nil, err
		}
		img.CreatedAt = parseTimestamp(created)
		out = append(out, img)
	}
	return out, rows.Err()
}

// DeleteImage removes one photo reference.
func (s *Store) DeleteImage(ctx context.Context, userID, cropID, imageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM imagenes WHERE id = ? AND user_id = ? AND sembrio_id = ?`, imageID, userID, cropID)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (s *Store) requireOwned(ctx context.Context, userID, cropID string) error {
	if err := s.checkUserAndCrop(ctx, s.db, userID, cropID); err != nil {
		return err
	}
	owned, err := s.owns(ctx, userID, cropID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotOwned
	}
	return nil
}
