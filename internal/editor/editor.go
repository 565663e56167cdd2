// Package editor holds the edit buffer: the working copy of a song between "new"/"edit" and save.
//
// Line identifiers come from an injected [IDSource] and are only meaningful within one [Buffer].
// Seeded lines are re-keyed so identifiers never collide with appended ones.
package editor

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

// IDSource yields line identifiers that are unique for the lifetime of a buffer.
type IDSource interface {
	Next() string
}

// Counter is a monotonic [IDSource] producing "1", "2", ...
type Counter struct {
	n atomic.Uint64
}

// NewCounter returns a counter whose first identifier is "1".
func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Next() string {
	return strconv.FormatUint(c.n.Add(1), 10)
}

// Buffer is the in-memory song being composed or modified. It always holds at least one line.
//
// A Buffer is not safe for concurrent use; the view controller serializes access.
type Buffer struct {
	ids     IDSource
	title   string
	lines   []models.Line
	editing *models.Song
}

// New returns an empty buffer for a new song: blank title, one empty line.
func New(ids IDSource) *Buffer {
	if ids == nil {
		ids = NewCounter()
	}
	b := &Buffer{ids: ids}
	b.Reset()
	return b
}

// FromSong seeds a buffer from song for editing. A song with no lines gets one empty line.
func FromSong(ids IDSource, song models.Song) *Buffer {
	b := New(ids)
	src := song.Clone()
	b.editing = &src
	b.title = song.Title

	if len(song.Lines) == 0 {
		return b
	}

	b.lines = make([]models.Line, 0, len(song.Lines))
	for _, l := range song.Lines {
		b.lines = append(b.lines, models.Line{ID: b.ids.Next(), Lyrics: l.Lyrics, FluteNotes: l.FluteNotes})
	}
	return b
}

// Title returns the working title as typed.
func (b *Buffer) Title() string { return b.title }

// Len returns the number of lines.
func (b *Buffer) Len() int { return len(b.lines) }

// Lines returns a copy of the lines in display order.
func (b *Buffer) Lines() []models.Line {
	return append([]models.Line(nil), b.lines...)
}

// Editing returns a copy of the song being edited, or nil for a new song.
func (b *Buffer) Editing() *models.Song {
	if b.editing == nil {
		return nil
	}
	s := b.editing.Clone()
	return &s
}

// SetTitle replaces the working title.
func (b *Buffer) SetTitle(title string) {
	b.title = title
}

// Append adds an empty line at the end and returns its identifier.
func (b *Buffer) Append() string {
	id := b.ids.Next()
	b.lines = append(b.lines, models.Line{ID: id})
	return id
}

// Update replaces one field of the line with id. Other lines and fields are untouched.
func (b *Buffer) Update(id string, field models.LineField, text string) error {
	i := b.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrLineNotFound, id)
	}

	switch field {
	case models.FieldLyrics:
		b.lines[i].Lyrics = text
	case models.FieldNotes:
		b.lines[i].FluteNotes = text
	default:
		return fmt.Errorf("%w: unknown field %v", shared.ErrInvalidInput, field)
	}
	return nil
}

// Remove deletes the line with id. The last remaining line cannot be removed.
func (b *Buffer) Remove(id string) error {
	i := b.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrLineNotFound, id)
	}
	if len(b.lines) == 1 {
		return shared.ErrLastLine
	}

	b.lines = append(b.lines[:i], b.lines[i+1:]...)
	return nil
}

// CanSave reports whether the title is non-empty after trimming.
func (b *Buffer) CanSave() bool {
	return strings.TrimSpace(b.title) != ""
}

// Build constructs the song to persist for owner at now.
//
// Blank lines are dropped. When editing, the identifier and creation time are kept and the
// modification time is forced strictly past the previous one. newID is only called for new songs.
func (b *Buffer) Build(now time.Time, owner string, newID func() string) (models.Song, error) {
	if !b.CanSave() {
		return models.Song{}, shared.ErrEmptyTitle
	}

	lines := make([]models.Line, 0, len(b.lines))
	for _, l := range b.lines {
		if !l.IsBlank() {
			lines = append(lines, l)
		}
	}

	now = now.UTC().Truncate(time.Microsecond)
	song := models.Song{
		Title:     b.title,
		Lines:     lines,
		UserID:    owner,
		UpdatedAt: now,
	}

	if b.editing != nil {
		song.ID = b.editing.ID
		song.CreatedAt = b.editing.CreatedAt
		if prior := b.editing.UpdatedAt; !now.After(prior) {
			song.UpdatedAt = prior.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
		}
		return song, nil
	}

	song.ID = newID()
	song.CreatedAt = now
	return song, nil
}

// Reset discards the working copy, leaving a blank title and one empty line.
func (b *Buffer) Reset() {
	b.title = ""
	b.editing = nil
	b.lines = []models.Line{{ID: b.ids.Next()}}
}

func (b *Buffer) index(id string) int {
	for i, l := range b.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}
