package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.hackfix.me/waypoint/db/models"
	dbtypes "go.hackfix.me/waypoint/db/types"
	"go.hackfix.me/waypoint/web/server/parse"
	"go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtask"
)

// Note is the JSON representation of a note.
type Note struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
}

func newNote(n *models.Note) Note {
	return Note{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		Title:     n.Title,
		Body:      n.Body,
		Status:    string(n.Status),
	}
}

// NoteInput is the request body of note writes. Absent fields are nil.
type NoteInput struct {
	Title  *string `json:"title"`
	Body   *string `json:"body"`
	Status *string `json:"status"`
}

// apply sets the fields present in in on n. If replace is true, absent fields
// are reset to their defaults instead.
func (in NoteInput) apply(n *models.Note, replace bool) error {
	switch {
	case in.Title != nil:
		n.Title = *in.Title
	case replace:
		n.Title = ""
	}
	if n.Title == "" {
		return types.NewError(http.StatusBadRequest, "note title must not be empty")
	}

	switch {
	case in.Body != nil:
		n.Body = *in.Body
	case replace:
		n.Body = ""
	}

	switch {
	case in.Status != nil:
		st, err := models.ParseNoteStatus(*in.Status)
		if err != nil {
			return types.NewError(http.StatusBadRequest, err.Error())
		}
		n.Status = st
	case replace:
		n.Status = models.NoteStatusActive
	}

	return nil
}

// ListNotes returns notes, oldest first. The "status" query parameter selects
// notes by status, "q" by a case-insensitive title substring, and "limit"
// caps the number of results.
func (h *Handler) ListNotes(meta parse.Meta, _ parse.Body) xtask.Task[*types.Response] {
	return func(ctx context.Context) (*types.Response, error) {
		filter, err := notesFilter(meta)
		if err != nil {
			return nil, err
		}

		notes, err := models.Notes(ctx, h.db, filter)
		if err != nil {
			return nil, fmt.Errorf("failed listing notes: %w", err)
		}

		out := make([]Note, len(notes))
		for i, n := range notes {
			out[i] = newNote(n)
		}

		//nolint:wrapcheck // This is fine.
		return types.JSON(types.OK, out)
	}
}

func notesFilter(meta parse.Meta) (*dbtypes.Filter, error) {
	var filter *dbtypes.Filter
	if s := meta.Get("status"); s != "" {
		st, err := models.ParseNoteStatus(s)
		if err != nil {
			return nil, types.NewError(http.StatusBadRequest, err.Error())
		}
		filter = filter.And(dbtypes.NewFilter("status = ?", []any{string(st)}))
	}
	if q := meta.Get("q"); q != "" {
		filter = filter.And(dbtypes.NewFilter(
			"title LIKE ? ESCAPE '\\'", []any{"%" + likeEscaper.Replace(q) + "%"}))
	}
	if l := meta.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			return nil, types.NewError(http.StatusBadRequest, fmt.Sprintf("invalid limit '%s'", l))
		}
		if filter == nil {
			filter = &dbtypes.Filter{}
		}
		filter.Limit = n
	}

	return filter, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// CreateNote stores a new note from the JSON body.
func (h *Handler) CreateNote(_ parse.Meta, body parse.Body) xtask.Task[*types.Response] {
	return func(ctx context.Context) (*types.Response, error) {
		var in NoteInput
		if err := body.Decode(&in); err != nil {
			return nil, err //nolint:wrapcheck // Already an HTTP error.
		}

		title := ""
		if in.Title != nil {
			title = *in.Title
		}
		note, err := models.NewNote(title, "", h.idGen)
		if err != nil {
			return nil, dbError(err)
		}
		if err = in.apply(note, false); err != nil {
			return nil, err
		}

		if err = note.Save(ctx, h.db, false); err != nil {
			return nil, dbError(err)
		}
		h.logger.Debug("created note", "id", note.ID)

		//nolint:wrapcheck // This is fine.
		return types.JSON(types.Created, newNote(note))
	}
}

// GetNote returns the note with the ID captured from the URL.
func (h *Handler) GetNote(meta parse.Meta, _ parse.Body) xtask.Task[*types.Response] {
	return func(ctx context.Context) (*types.Response, error) {
		note := &models.Note{ID: meta.Get("ID")}
		if err := note.Load(ctx, h.db); err != nil {
			return nil, dbError(err)
		}

		//nolint:wrapcheck // This is fine.
		return types.JSON(types.OK, newNote(note))
	}
}

// ReplaceNote overwrites all fields of a note with the JSON body.
func (h *Handler) ReplaceNote(meta parse.Meta, body parse.Body) xtask.Task[*types.Response] {
	return h.writeNote(meta, body, true)
}

// UpdateNote changes only the fields of a note present in the JSON body.
func (h *Handler) UpdateNote(meta parse.Meta, body parse.Body) xtask.Task[*types.Response] {
	return h.writeNote(meta, body, false)
}

func (h *Handler) writeNote(meta parse.Meta, body parse.Body, replace bool) xtask.Task[*types.Response] {
	return func(ctx context.Context) (*types.Response, error) {
		var in NoteInput
		if err := body.Decode(&in); err != nil {
			return nil, err //nolint:wrapcheck // Already an HTTP error.
		}

		note := &models.Note{ID: meta.Get("ID")}
		if err := note.Load(ctx, h.db); err != nil {
			return nil, dbError(err)
		}
		if err := in.apply(note, replace); err != nil {
			return nil, err
		}
		if err := note.Save(ctx, h.db, true); err != nil {
			return nil, dbError(err)
		}

		//nolint:wrapcheck // This is fine.
		return types.JSON(types.OK, newNote(note))
	}
}

// DeleteNote removes the note with the ID captured from the URL.
func (h *Handler) DeleteNote(meta parse.Meta, _ parse.Body) xtask.Task[*types.Response] {
	return func(ctx context.Context) (*types.Response, error) {
		note := &models.Note{ID: meta.Get("ID")}
		if err := note.Delete(ctx, h.db); err != nil {
			return nil, dbError(err)
		}
		h.logger.Debug("deleted note", "id", note.ID)

		return types.NoContent(nil), nil
	}
}

// dbError maps expected storage errors to HTTP errors.
func dbError(err error) error {
	var (
		errNoRes dbtypes.NoResultError
		errInput dbtypes.InvalidInputError
		errDupe  dbtypes.DuplicateError
	)
	switch {
	case errors.As(err, &errNoRes):
		return types.NewError(http.StatusNotFound, err.Error())
	case errors.As(err, &errInput):
		return types.NewError(http.StatusBadRequest, err.Error())
	case errors.As(err, &errDupe):
		return types.NewError(http.StatusConflict, err.Error())
	default:
		return err
	}
}
