package controller

import (
	"strings"

	"github.com/desertthunder/flutenotes/internal/models"
)

// Kind names the screen a [State] renders.
type Kind int

const (
	KindLoading Kind = iota
	KindError
	KindLibrary
	KindNew
	KindEdit
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindError:
		return "error"
	case KindLibrary:
		return "library"
	case KindNew:
		return "new"
	case KindEdit:
		return "edit"
	default:
		return "unknown"
	}
}

// State is one of [LoadingState], [ErrorState], [LibraryState] or [EditorState].
type State interface {
	Kind() Kind
	state()
}

var (
	_ State = LoadingState{}
	_ State = ErrorState{}
	_ State = LibraryState{}
	_ State = EditorState{}
)

// LoadingState is shown while the session and collection resolve.
type LoadingState struct{}

func (LoadingState) Kind() Kind { return KindLoading }
func (LoadingState) state()     {}

// ErrorState is terminal until the user retries.
type ErrorState struct {
	Message string
}

func (ErrorState) Kind() Kind { return KindError }
func (ErrorState) state()     {}

// LibraryState lists the user's songs, most recently modified first. Notice carries a failed delete.
type LibraryState struct {
	Songs  []models.Song
	Notice string
}

func (LibraryState) Kind() Kind { return KindLibrary }
func (LibraryState) state()     {}

// EditorState mirrors the edit buffer. Editing is nil for a new song.
type EditorState struct {
	Editing *models.Song
	Title   string
	Lines   []models.Line
	Saving  bool
	Notice  string
}

func (s EditorState) Kind() Kind {
	if s.Editing == nil {
		return KindNew
	}
	return KindEdit
}

func (EditorState) state() {}

// CanSave reports whether the save control is enabled.
func (s EditorState) CanSave() bool {
	return strings.TrimSpace(s.Title) != "" && !s.Saving
}

// CanRemoveLine reports whether the remove control is shown.
func (s EditorState) CanRemoveLine() bool {
	return len(s.Lines) > 1
}

// copyState returns s with its slices detached from controller storage.
func copyState(s State) State {
	switch v := s.(type) {
	case LibraryState:
		v.Songs = cloneSongs(v.Songs)
		return v
	case EditorState:
		v.Lines = append([]models.Line(nil), v.Lines...)
		if v.Editing != nil {
			e := v.Editing.Clone()
			v.Editing = &e
		}
		return v
	default:
		return s
	}
}

func cloneSongs(songs []models.Song) []models.Song {
	out := make([]models.Song, len(songs))
	for i, s := range songs {
		out[i] = s.Clone()
	}
	return out
}
