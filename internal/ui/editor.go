package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/flutenotes/internal/controller"
	"github.com/desertthunder/flutenotes/internal/models"
)

type lineInputs struct {
	id     string
	lyrics textinput.Model
	notes  textinput.Model
}

// editorForm holds one text input per editable field. Field 0 is the title; line i owns fields 1+2i
// (lyrics) and 2+2i (notes).
type editorForm struct {
	ready     bool
	songID    string
	title     textinput.Model
	lines     []lineInputs
	focus     int
	focusLine string
	width     int
}

func newInput(placeholder, value string, width int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.SetValue(value)
	if width > 0 {
		in.Width = width
	}
	return in
}

// sync rebuilds the inputs when the song or its set of lines changed. Typed text is already mirrored
// in es, so a rebuild loses nothing.
func (f *editorForm) sync(es controller.EditorState) tea.Cmd {
	songID := ""
	if es.Editing != nil {
		songID = es.Editing.ID
	}
	if f.ready && f.songID == songID && f.sameLines(es.Lines) {
		return nil
	}

	inputWidth := max(f.width-16, 20)
	f.songID = songID
	f.title = newInput("Song title", es.Title, inputWidth)
	f.lines = make([]lineInputs, len(es.Lines))
	for i, l := range es.Lines {
		f.lines[i] = lineInputs{
			id:     l.ID,
			lyrics: newInput("Lyrics", l.Lyrics, inputWidth),
			notes:  newInput("Flute notes", l.FluteNotes, inputWidth),
		}
	}

	if !f.ready {
		f.focus = 0
	}
	if f.focusLine != "" {
		for i, l := range f.lines {
			if l.id == f.focusLine {
				f.focus = 1 + 2*i
			}
		}
		f.focusLine = ""
	}
	f.focus = min(f.focus, f.fieldCount()-1)
	f.ready = true
	return f.applyFocus()
}

func (f *editorForm) sameLines(lines []models.Line) bool {
	if len(lines) != len(f.lines) {
		return false
	}
	for i, l := range lines {
		if f.lines[i].id != l.ID {
			return false
		}
	}
	return true
}

func (f *editorForm) fieldCount() int {
	return 1 + 2*len(f.lines)
}

func (f *editorForm) field(i int) *textinput.Model {
	if i <= 0 {
		return &f.title
	}
	line := &f.lines[(i-1)/2]
	if (i-1)%2 == 0 {
		return &line.lyrics
	}
	return &line.notes
}

// target describes the focused field: the title, or a line id and field.
func (f *editorForm) target() (lineID string, field models.LineField, isTitle bool) {
	if f.focus <= 0 || len(f.lines) == 0 {
		return "", 0, true
	}
	line := f.lines[(f.focus-1)/2]
	if (f.focus-1)%2 == 0 {
		return line.id, models.FieldLyrics, false
	}
	return line.id, models.FieldNotes, false
}

func (f *editorForm) move(delta int) tea.Cmd {
	n := f.fieldCount()
	f.focus = ((f.focus+delta)%n + n) % n
	return f.applyFocus()
}

func (f *editorForm) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.fieldCount() {
		in := f.field(i)
		if i == f.focus {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

// update feeds msg to the focused input and returns its new value.
func (f *editorForm) update(msg tea.Msg) (string, tea.Cmd) {
	in := f.field(f.focus)
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return in.Value(), cmd
}

func (f *editorForm) view(es controller.EditorState, help string) string {
	var b strings.Builder

	heading := "New Song"
	if es.Kind() == controller.KindEdit {
		heading = "Edit Song"
	}
	b.WriteString(styles.title.Render(heading))
	b.WriteString("\n")

	b.WriteString(f.label("Title", 0))
	b.WriteString("\n")
	b.WriteString(f.title.View())
	b.WriteString("\n\n")

	canRemove := es.CanRemoveLine()
	for i, l := range f.lines {
		b.WriteString(styles.label.Render(fmt.Sprintf("Line %d", i+1)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s %s\n", f.label("Lyrics", 1+2*i), l.lyrics.View())
		fmt.Fprintf(&b, "  %s %s\n", f.label("Notes ", 2+2*i), l.notes.View())
		if canRemove {
			b.WriteString(styles.muted.Render("  ctrl+d remove line"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	switch {
	case es.Saving:
		b.WriteString(styles.warn.Render("Saving..."))
	case es.CanSave():
		b.WriteString(styles.ok.Render("[ Save ]"))
	default:
		b.WriteString(styles.muted.Render("[ Save ] (enter a title)"))
	}
	b.WriteString("\n")

	if es.Notice != "" {
		b.WriteString("\n")
		b.WriteString(styles.err.Render(es.Notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(help)
	return b.String()
}

func (f *editorForm) label(name string, field int) string {
	if field == f.focus {
		return styles.focused.Render(name)
	}
	return styles.muted.Render(name)
}
