package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/flutenotes/internal/controller"
	"github.com/desertthunder/flutenotes/internal/models"
)

// RedirectMessage is shown once the controller has sent the user to sign in.
const RedirectMessage = "You are signed out. Run `flutenotes auth login` to sign in again (" + controller.LoginRoute + ")."

const emptyLibraryPrompt = "No songs yet. Press n to write your first flute song."

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	ctl        *controller.Controller
	state      controller.State
	changed    chan struct{}
	unwatch    func()
	width      int
	height     int
	spinner    spinner.Model
	library    list.Model
	form       editorForm
	confirm    *models.Song
	redirected bool
	help       help.Model
	keys       keyMap
}

// NewModel creates a TUI model driven by ctl. Call [Model.Close] when the program exits.
func NewModel(ctx context.Context, ctl *controller.Controller) *Model {
	library := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	library.Title = "Your Songs"
	library.Filter = foldFilter
	library.SetShowHelp(false)
	library.DisableQuitKeybindings()

	m := &Model{
		ctx:     ctx,
		ctl:     ctl,
		state:   ctl.State(),
		changed: make(chan struct{}, 1),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		library: library,
		help:    help.New(),
		keys:    newKeyMap(),
	}
	m.unwatch = ctl.OnChange(func(controller.State) {
		select {
		case m.changed <- struct{}{}:
		default:
		}
	})
	return m
}

// Init starts the controller and begins listening for state changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForChange(), m.run(opStart, ""))
}

// Close stops listening to the controller.
func (m *Model) Close() {
	if m.unwatch != nil {
		m.unwatch()
		m.unwatch = nil
	}
}

// Redirected reports whether the program ended because the session was lost.
func (m *Model) Redirected() bool {
	return m.redirected
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.library.SetSize(msg.Width-4, msg.Height-8)
		m.form.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.state.Kind() != controller.KindLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgStateChanged:
			return m, tea.Batch(m.apply(), m.waitForChange())
		case MsgOpDone:
			return m, m.apply()
		}
		return m, nil

	case tea.KeyMsg:
		if m.redirected {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.forceQ) {
			return m, tea.Quit
		}

		switch st := m.state.(type) {
		case controller.LoadingState:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
		case controller.ErrorState:
			return m.handleErrorKeys(msg)
		case controller.LibraryState:
			return m.handleLibraryKeys(msg, st)
		case controller.EditorState:
			return m.handleEditorKeys(msg, st)
		}
		return m, nil
	}

	if m.state.Kind() == controller.KindLibrary {
		var cmd tea.Cmd
		m.library, cmd = m.library.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply pulls the controller's current state into the model.
func (m *Model) apply() tea.Cmd {
	m.state = m.ctl.State()
	if m.ctl.Redirected() {
		m.redirected = true
		return tea.Quit
	}

	switch st := m.state.(type) {
	case controller.LibraryState:
		m.form = editorForm{width: m.width}
		if m.confirm != nil {
			if _, ok := models.FindSong(st.Songs, m.confirm.ID); !ok {
				m.confirm = nil
			}
		}
		return m.library.SetItems(songItems(st.Songs))
	case controller.EditorState:
		m.confirm = nil
		return m.form.sync(st)
	case controller.LoadingState:
		m.confirm = nil
		return m.spinner.Tick
	default:
		m.confirm = nil
		return nil
	}
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.retry):
		return m, m.run(opRetry, "")
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg, st controller.LibraryState) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		switch {
		case key.Matches(msg, m.keys.yes):
			id := m.confirm.ID
			m.confirm = nil
			return m, m.run(opDelete, id)
		case key.Matches(msg, m.keys.no):
			m.confirm = nil
		}
		return m, nil
	}

	if m.library.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.library, cmd = m.library.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.newSong):
		if err := m.ctl.StartNew(); err != nil {
			return m, nil
		}
		return m, m.apply()
	case key.Matches(msg, m.keys.enter):
		if song, ok := m.selected(); ok {
			if err := m.ctl.EditSong(song.ID); err != nil {
				return m, nil
			}
			return m, m.apply()
		}
		return m, nil
	case key.Matches(msg, m.keys.del):
		if song, ok := m.selected(); ok {
			m.confirm = &song
		}
		return m, nil
	case key.Matches(msg, m.keys.signOut):
		return m, m.run(opSignOut, "")
	}

	if len(st.Songs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.library, cmd = m.library.Update(msg)
	return m, cmd
}

func (m *Model) handleEditorKeys(msg tea.KeyMsg, st controller.EditorState) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		return m, m.run(opBack, "")
	case key.Matches(msg, m.keys.save):
		if !st.CanSave() {
			return m, nil
		}
		return m, m.run(opSave, "")
	case key.Matches(msg, m.keys.next):
		return m, m.form.move(1)
	case key.Matches(msg, m.keys.prev):
		return m, m.form.move(-1)
	case key.Matches(msg, m.keys.addLine):
		id, err := m.ctl.AppendLine()
		if err != nil {
			return m, nil
		}
		m.form.focusLine = id
		return m, m.apply()
	case key.Matches(msg, m.keys.dropLine):
		lineID, _, isTitle := m.form.target()
		if isTitle || !st.CanRemoveLine() {
			return m, nil
		}
		if err := m.ctl.RemoveLine(lineID); err != nil {
			return m, nil
		}
		return m, m.apply()
	}

	value, cmd := m.form.update(msg)
	lineID, field, isTitle := m.form.target()
	var err error
	if isTitle {
		err = m.ctl.SetTitle(value)
	} else {
		err = m.ctl.UpdateLine(lineID, field, value)
	}
	if err == nil {
		m.state = m.ctl.State()
	}
	return m, cmd
}

func (m *Model) selected() (models.Song, bool) {
	item, ok := m.library.SelectedItem().(songItem)
	if !ok {
		return models.Song{}, false
	}
	return item.song, true
}

// run executes a store-bound controller operation off the event loop.
func (m *Model) run(o op, id string) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch o {
		case opStart:
			err = m.ctl.Start(m.ctx)
		case opRetry:
			err = m.ctl.Retry(m.ctx)
		case opSave:
			err = m.ctl.Save(m.ctx)
		case opBack:
			err = m.ctl.Back(m.ctx)
		case opDelete:
			err = m.ctl.Delete(m.ctx, id)
		case opSignOut:
			err = m.ctl.SignOut(m.ctx)
		}
		return opDoneMsg(o, err)
	}
}

// waitForChange blocks until the controller signals a state change made outside the event loop.
func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changed:
			return stateChangedMsg(m.ctl.State())
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.redirected {
		return styles.warn.Render(RedirectMessage) + "\n"
	}

	switch st := m.state.(type) {
	case controller.LoadingState:
		return fmt.Sprintf("%s Loading your songs...\n", m.spinner.View())
	case controller.ErrorState:
		return styles.err.Render(st.Message) + "\n\nPress r to retry, q to quit\n"
	case controller.LibraryState:
		return m.renderLibrary(st)
	case controller.EditorState:
		return m.renderEditor(st)
	default:
		return ""
	}
}

func (m *Model) header() string {
	h := "Flute Notes"
	if s := m.ctl.Session(); s != nil {
		h += " · " + s.Email
	}
	return styles.title.Render(h)
}

func (m *Model) renderLibrary(st controller.LibraryState) string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	if st.Notice != "" {
		b.WriteString(styles.err.Render(st.Notice))
		b.WriteString("\n\n")
	}

	if len(st.Songs) == 0 {
		b.WriteString(styles.card.Render(emptyLibraryPrompt))
		b.WriteString("\n")
	} else {
		b.WriteString(m.library.View())
		b.WriteString("\n")
	}

	if m.confirm != nil {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(fmt.Sprintf("Delete %q? This cannot be undone. (y/n)", m.confirm.Title)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.libraryHelp()))
	return b.String()
}

func (m *Model) renderEditor(st controller.EditorState) string {
	helpView := m.help.ShortHelpView(m.keys.editorHelp(st.CanRemoveLine()))
	return m.header() + "\n" + m.form.view(st, helpView)
}
