package models

import (
	"fmt"
	"strings"
	"time"
)

// LineField selects which text of a [Line] an edit applies to.
type LineField int

const (
	FieldLyrics LineField = iota
	FieldNotes
)

func (f LineField) String() string {
	switch f {
	case FieldLyrics:
		return "lyrics"
	case FieldNotes:
		return "fluteNotes"
	default:
		return fmt.Sprintf("LineField(%d)", int(f))
	}
}

// ParseLineField maps "lyrics" and "notes"/"fluteNotes" to a [LineField].
func ParseLineField(s string) (LineField, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lyrics", "lyric":
		return FieldLyrics, true
	case "notes", "flutenotes", "notation":
		return FieldNotes, true
	default:
		return 0, false
	}
}

// Line is one lyrics/notation pair. Its ID is only meaningful inside a single edit buffer.
type Line struct {
	ID         string `json:"id"`
	Lyrics     string `json:"lyrics"`
	FluteNotes string `json:"fluteNotes"`
}

// IsBlank reports whether both texts are empty after trimming whitespace.
func (l Line) IsBlank() bool {
	return strings.TrimSpace(l.Lyrics) == "" && strings.TrimSpace(l.FluteNotes) == ""
}

// Get returns the text of field.
func (l Line) Get(field LineField) string {
	if field == FieldNotes {
		return l.FluteNotes
	}
	return l.Lyrics
}

// Song is a user-owned record with a title and ordered lines.
type Song struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Lines     []Line    `json:"lines"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields every persisted song must carry.
func (s Song) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("song id is required")
	}
	if s.UserID == "" {
		return fmt.Errorf("song owner is required")
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("song title is required")
	}
	return nil
}

// Clone returns a copy that shares no slice storage with s.
func (s Song) Clone() Song {
	c := s
	if s.Lines != nil {
		c.Lines = append([]Line(nil), s.Lines...)
	}
	return c
}

// FindSong returns the song with id from songs.
func FindSong(songs []Song, id string) (Song, bool) {
	for _, s := range songs {
		if s.ID == id {
			return s, true
		}
	}
	return Song{}, false
}
