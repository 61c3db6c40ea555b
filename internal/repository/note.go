// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/notesapp/internal/models"
	"github.com/google/uuid"
)

// CreateNote creates a new note for the given user and returns it.
func (r *Repository) CreateNote(ctx context.Context, userID int64, title, content string) (*models.Note, error) {
	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, title, content) VALUES (?, ?, ?, ?)`,
		id, userID, title, content); err != nil {
		return nil, err
	}
	return r.GetNote(ctx, id)
}

// GetNote retrieves a note by ID.
func (r *Repository) GetNote(ctx context.Context, id string) (*models.Note, error) {
	var note models.Note
	if err := r.db.GetContext(ctx, &note, `SELECT * FROM notes WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &note, nil
}

// ListNotesByUser returns all notes for a user, pinned first, newest first.
func (r *Repository) ListNotesByUser(ctx context.Context, userID int64) ([]models.Note, error) {
	notes := []models.Note{}
	if err := r.db.SelectContext(ctx, &notes,
		`SELECT * FROM notes WHERE user_id = ? ORDER BY pinned DESC, updated_at DESC`, userID); err != nil {
		return nil, err
	}
	return notes, nil
}

// NoteUpdate holds the optional fields of a partial note update.
type NoteUpdate struct {
	Title   *string
	Content *string
	Pinned  *bool
}

// UpdateNote applies a partial update to a note and returns the result.
func (r *Repository) UpdateNote(ctx context.Context, id string, update NoteUpdate) (*models.Note, error) {
	note, err := r.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		note.Title = *update.Title
	}
	if update.Content != nil {
		note.Content = *update.Content
	}
	if update.Pinned != nil {
		note.Pinned = *update.Pinned
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, pinned = ?, updated_at = ? WHERE id = ?`,
		note.Title, note.Content, note.Pinned, time.Now(), id); err != nil {
		return nil, err
	}
	return r.GetNote(ctx, id)
}

// DeleteNote deletes a note by ID.
func (r *Repository) DeleteNote(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
