package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nrednav/cuid2"

	"go.hackfix.me/waypoint/db/types"
)

// NoteStatus is the lifecycle state of a note.
type NoteStatus string

// Valid note status values.
const (
	NoteStatusActive   NoteStatus = "active"
	NoteStatusArchived NoteStatus = "archived"
)

// ParseNoteStatus returns the NoteStatus with the given name.
func ParseNoteStatus(s string) (NoteStatus, error) {
	switch st := NoteStatus(s); st {
	case NoteStatusActive, NoteStatusArchived:
		return st, nil
	default:
		return "", types.InvalidInputError{Msg: fmt.Sprintf("invalid note status '%s'", s)}
	}
}

// Note is a short text record managed through the HTTP API.
type Note struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Title     string
	Body      string
	Status    NoteStatus
}

// NewNote creates a new active note with a unique ID. If idGen is nil,
// cuid2.Generate is used.
func NewNote(title, body string, idGen func() string) (*Note, error) {
	if title == "" {
		return nil, types.InvalidInputError{Msg: "note title must not be empty"}
	}
	if idGen == nil {
		idGen = cuid2.Generate
	}

	return &Note{
		ID:     idGen(),
		Title:  title,
		Body:   body,
		Status: NoteStatusActive,
	}, nil
}

// Save stores the note in the database. If update is true, the note with the
// same ID is overwritten, and an error is returned if it doesn't exist.
func (n *Note) Save(ctx context.Context, d types.Querier, update bool) error {
	if n.ID == "" {
		return types.InvalidInputError{Msg: "note ID must be set"}
	}
	if n.Status == "" {
		n.Status = NoteStatusActive
	}

	idStr := fmt.Sprintf("ID '%s'", n.ID)
	timeNow := d.TimeNow().UTC()
	if update {
		res, err := d.ExecContext(ctx,
			`UPDATE notes
			SET updated_at = ?, title = ?, body = ?, status = ?
			WHERE id = ?`,
			timeNow, n.Title, n.Body, string(n.Status), n.ID)
		if err != nil {
			return fmt.Errorf("failed updating note with %s: %w", idStr, err)
		}

		if ok, err := affectedOne(res); err != nil {
			return err
		} else if !ok {
			return types.NoResultError{ModelName: "note", ID: idStr}
		}
		n.UpdatedAt = timeNow

		return nil
	}

	_, err := d.ExecContext(ctx,
		`INSERT INTO notes (id, created_at, updated_at, title, body, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, timeNow, timeNow, n.Title, n.Body, string(n.Status))
	if err != nil {
		return types.Err("note", idStr, err)
	}
	n.CreatedAt = timeNow
	n.UpdatedAt = timeNow

	return nil
}

// Load the note with the set ID from the database.
func (n *Note) Load(ctx context.Context, d types.Querier) error {
	if n.ID == "" {
		return types.InvalidInputError{Msg: "note ID must be set"}
	}

	notes, err := Notes(ctx, d, types.NewFilter("id = ?", []any{n.ID}))
	if err != nil {
		return err
	}

	if len(notes) == 0 {
		return types.NoResultError{ModelName: "note", ID: fmt.Sprintf("ID '%s'", n.ID)}
	}
	*n = *notes[0]

	return nil
}

// Delete removes the note with the set ID from the database.
func (n *Note) Delete(ctx context.Context, d types.Querier) error {
	if n.ID == "" {
		return types.InvalidInputError{Msg: "note ID must be set"}
	}

	idStr := fmt.Sprintf("ID '%s'", n.ID)
	res, err := d.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, n.ID)
	if err != nil {
		return types.Err("note", idStr, err)
	}

	if ok, err := affectedOne(res); err != nil {
		return err
	} else if !ok {
		return types.NoResultError{ModelName: "note", ID: idStr}
	}

	return nil
}

// Notes returns notes from the database, oldest first. An optional filter can
// be passed to limit the results.
func Notes(ctx context.Context, d types.Querier, filter *types.Filter) (notes []*Note, rerr error) {
	where, args, limit := filter.Clause()

	query := fmt.Sprintf(`SELECT id, created_at, updated_at, title, body, status
		FROM notes
		WHERE %s
		ORDER BY created_at ASC, id ASC %s`, where, limit)

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.LoadError{ModelName: "notes", Err: err}
	}
	defer func() {
		if err = rows.Close(); err != nil {
			rerr = errors.Join(rerr, fmt.Errorf("failed closing notes rows: %w", err))
		}
	}()

	notes = make([]*Note, 0)
	for rows.Next() {
		var (
			n      Note
			status string
		)
		err = rows.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt, &n.Title, &n.Body, &status)
		if err != nil {
			return nil, types.ScanError{ModelName: "note", Err: err}
		}
		n.Status = NoteStatus(status)
		notes = append(notes, &n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over notes rows: %w", err)
	}

	return notes, nil
}
