// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/notesapp/internal/auth"
	"codeberg.org/oliverandrich/notesapp/internal/models"
	"codeberg.org/oliverandrich/notesapp/internal/repository"
	"github.com/labstack/echo/v4"
)

// NoteHandlers contains handlers for the notes CRUD API.
type NoteHandlers struct {
	repo *repository.Repository
}

// NewNotes creates a new NoteHandlers instance.
func NewNotes(repo *repository.Repository) *NoteHandlers {
	return &NoteHandlers{repo: repo}
}

// List returns all notes of the authenticated user.
func (h *NoteHandlers) List(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	notes, err := h.repo.ListNotesByUser(c.Request().Context(), user.ID)
	if err != nil {
		slog.Error("list_notes_failed", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch notes"})
	}

	return c.JSON(http.StatusOK, map[string]any{"notes": notes})
}

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create creates a note for the authenticated user.
func (h *NoteHandlers) Create(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	var req CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "content is required"})
	}

	note, err := h.repo.CreateNote(c.Request().Context(), user.ID, req.Title, req.Content)
	if err != nil {
		slog.Error("create_note_failed", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create note"})
	}

	return c.JSON(http.StatusCreated, map[string]any{"note": note})
}

// UpdateNoteRequest is the request body for a partial note update.
type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Pinned  *bool   `json:"pinned"`
}

// Update applies a partial update to one of the user's notes.
func (h *NoteHandlers) Update(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	var req UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Title == nil && req.Content == nil && req.Pinned == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "nothing to update"})
	}

	note, err := h.ownedNote(c, user)
	if err != nil {
		// Missing and foreign notes answer identically.
		return c.JSON(http.StatusNotFound, map[string]string{"error": "note not found"})
	}

	updated, err := h.repo.UpdateNote(c.Request().Context(), note.ID, repository.NoteUpdate{
		Title:   req.Title,
		Content: req.Content,
		Pinned:  req.Pinned,
	})
	if err != nil {
		slog.Error("update_note_failed", "error", err, "note_id", note.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update note"})
	}

	return c.JSON(http.StatusOK, map[string]any{"note": updated})
}

// Delete removes one of the user's notes.
func (h *NoteHandlers) Delete(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	note, err := h.ownedNote(c, user)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "note not found"})
	}

	if err := h.repo.DeleteNote(c.Request().Context(), note.ID); err != nil {
		slog.Error("delete_note_failed", "error", err, "note_id", note.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete note"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Note deleted"})
}

// ownedNote loads the note from the path parameter and checks ownership.
func (h *NoteHandlers) ownedNote(c echo.Context, user *models.User) (*models.Note, error) {
	note, err := h.repo.GetNote(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if note.UserID != user.ID {
		return nil, repository.ErrNotFound
	}
	return note, nil
}
