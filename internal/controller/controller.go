// Package controller implements the view controller: the state machine that picks the screen to render
// and routes library and editor intents to the edit buffer, the collection store and the session gateway.
//
// The controller starts in [LoadingState]. A missing session, a session resolution failure or a sign-out
// sends the user to [LoginRoute] through the [Navigator]; from then on every operation fails with
// [shared.ErrNotAuthenticated]. Store calls run without holding the controller lock, and results from an
// editor that has since been left are dropped.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flutenotes/internal/editor"
	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

// LoginRoute is the sign-in destination used for redirects.
const LoginRoute = "/auth/login"

// Navigator leaves the application shell.
type Navigator interface {
	Redirect(route string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(route string)

func (f NavigatorFunc) Redirect(route string) { f(route) }

// Options configures a [Controller]. Zero values select the production defaults.
type Options struct {
	LineIDs func() editor.IDSource // LineIDs returns a fresh line identifier source per buffer
	SongID  func() string          // SongID generates identifiers for new songs
	Now     func() time.Time
	Logger  *log.Logger
}

// Controller is the view state machine. It is safe for concurrent use.
type Controller struct {
	store   models.CollectionStore
	gateway models.SessionGateway
	nav     Navigator
	opts    Options
	logger  *log.Logger

	mu          sync.Mutex
	ctx         context.Context
	state       State
	session     *models.Session
	songs       []models.Song
	buffer      *editor.Buffer
	epoch       uint64
	loadSeq     uint64
	redirected  bool
	unsubscribe func()
	observers   []observer
	nextObs     int
}

type observer struct {
	id int
	fn func(State)
}

// New creates a controller in [LoadingState]. Call [Controller.Start] to resolve the session.
func New(store models.CollectionStore, gateway models.SessionGateway, nav Navigator, opts Options) *Controller {
	if opts.LineIDs == nil {
		opts.LineIDs = func() editor.IDSource { return editor.NewCounter() }
	}
	if opts.SongID == nil {
		opts.SongID = shared.GenerateID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}

	return &Controller{
		store:   store,
		gateway: gateway,
		nav:     nav,
		opts:    opts,
		logger:  shared.WithLogger(opts.Logger, "component", "controller"),
		ctx:     context.Background(),
		state:   LoadingState{},
	}
}

// State returns a snapshot of the current screen.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyState(c.state)
}

// Session returns the signed-in user, or nil before start and after a redirect.
func (c *Controller) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Redirected reports whether the controller has sent the user to the sign-in route.
func (c *Controller) Redirected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirected
}

// OnChange registers fn to receive every new state until the returned function is called.
//
// fn runs on the goroutine that caused the change, without the controller lock held.
func (c *Controller) OnChange(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextObs++
	id := c.nextObs
	c.observers = append(c.observers, observer{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// Start resolves the session once. Without one the user is redirected; otherwise the controller subscribes
// to session changes and loads the collection.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.redirected {
		c.mu.Unlock()
		return shared.ErrNotAuthenticated
	}
	c.ctx = context.WithoutCancel(ctx)
	c.state = LoadingState{}
	c.mu.Unlock()
	c.notify()

	session, err := c.gateway.CurrentSession(ctx)
	if err != nil {
		c.logger.Warn("session resolution failed", "error", err)
		c.redirect()
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	if session == nil {
		c.redirect()
		return shared.ErrNotAuthenticated
	}

	c.mu.Lock()
	c.session = session
	subscribe := c.unsubscribe == nil
	c.mu.Unlock()

	if subscribe {
		unsubscribe := c.gateway.Subscribe(c.onSessionEvent)
		c.mu.Lock()
		if c.unsubscribe == nil && !c.redirected {
			c.unsubscribe = unsubscribe
			unsubscribe = nil
		}
		c.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
	}

	return c.reload(ctx)
}

// Retry leaves [ErrorState] by starting over.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if err := c.check(KindError); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	return c.Start(ctx)
}

// Close stops listening for session changes. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// StartNew opens the editor on an empty buffer.
func (c *Controller) StartNew() error {
	c.mu.Lock()
	if err := c.check(KindLibrary); err != nil {
		c.mu.Unlock()
		return err
	}
	c.openEditor(editor.New(c.opts.LineIDs()))
	c.mu.Unlock()
	c.notify()
	return nil
}

// EditSong opens the editor seeded from the loaded song with id.
func (c *Controller) EditSong(id string) error {
	c.mu.Lock()
	if err := c.check(KindLibrary); err != nil {
		c.mu.Unlock()
		return err
	}

	song, ok := models.FindSong(c.songs, id)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	c.openEditor(editor.FromSong(c.opts.LineIDs(), song))
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetTitle replaces the working title.
func (c *Controller) SetTitle(title string) error {
	return c.edit(func(b *editor.Buffer) error {
		b.SetTitle(title)
		return nil
	})
}

// AppendLine adds an empty line and returns its identifier.
func (c *Controller) AppendLine() (string, error) {
	var id string
	err := c.edit(func(b *editor.Buffer) error {
		id = b.Append()
		return nil
	})
	return id, err
}

// UpdateLine replaces one field of a line.
func (c *Controller) UpdateLine(id string, field models.LineField, text string) error {
	return c.edit(func(b *editor.Buffer) error {
		return b.Update(id, field, text)
	})
}

// RemoveLine deletes a line. The last line is never removed.
func (c *Controller) RemoveLine(id string) error {
	return c.edit(func(b *editor.Buffer) error {
		return b.Remove(id)
	})
}

// Save commits the buffer. A blank title or a save already in flight is refused without a store call.
//
// On success the buffer is discarded and the library reloads. On failure the editor stays open with
// the buffer intact and a notice.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	es, err := c.editorState()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if es.Saving {
		c.mu.Unlock()
		return shared.ErrSaveInFlight
	}

	owner := c.session.UserID
	song, err := c.buffer.Build(c.opts.Now(), owner, c.opts.SongID)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	editing := c.buffer.Editing() != nil
	epoch := c.epoch
	es.Saving = true
	es.Notice = ""
	c.state = es
	c.mu.Unlock()
	c.notify()

	op := "insert"
	if editing {
		op = "update"
		err = c.store.Update(ctx, song)
	} else {
		err = c.store.Insert(ctx, song)
	}

	c.mu.Lock()
	if c.redirected || c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Debug("save finished after leaving the editor", "song_id", song.ID, "error", err)
		return err
	}

	if err != nil {
		c.logger.Error("store request failed", "op", op, "song_id", song.ID, "owner", owner, "error", err)
		es, _ := c.editorState()
		es.Saving = false
		es.Notice = shared.MsgSaveFailed
		c.state = es
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.closeEditor()
	c.mu.Unlock()
	c.notify()
	return c.reload(ctx)
}

// Back discards the buffer and returns to the library, reloading the collection.
func (c *Controller) Back(ctx context.Context) error {
	c.mu.Lock()
	if _, err := c.editorState(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.closeEditor()
	c.mu.Unlock()
	c.notify()
	return c.reload(ctx)
}

// Delete removes a song scoped to the signed-in owner and reloads. On failure the list is left as it was
// and a notice is shown.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if err := c.check(KindLibrary); err != nil {
		c.mu.Unlock()
		return err
	}
	owner := c.session.UserID
	c.mu.Unlock()

	if err := c.store.Delete(ctx, id, owner); err != nil {
		c.logger.Error("store request failed", "op", "delete", "song_id", id, "owner", owner, "error", err)

		c.mu.Lock()
		if lib, ok := c.state.(LibraryState); ok && !c.redirected {
			lib.Notice = shared.MsgDeleteFailed
			c.state = lib
			c.mu.Unlock()
			c.notify()
		} else {
			c.mu.Unlock()
		}
		return err
	}

	return c.reload(ctx)
}

// SignOut ends the session. The controller redirects whether or not the gateway announces it.
func (c *Controller) SignOut(ctx context.Context) error {
	c.mu.Lock()
	if c.redirected {
		c.mu.Unlock()
		return shared.ErrNotAuthenticated
	}
	c.mu.Unlock()

	err := c.gateway.SignOut(ctx)
	if err != nil {
		c.logger.Warn("sign out failed", "error", err)
	}
	c.redirect()
	return err
}

func (c *Controller) onSessionEvent(event models.AuthEvent, session *models.Session) {
	if event == models.EventSignedOut || session == nil {
		c.redirect()
		return
	}

	c.mu.Lock()
	if c.redirected {
		c.mu.Unlock()
		return
	}
	switched := c.session == nil || c.session.UserID != session.UserID
	c.session = session
	if switched && c.buffer != nil {
		c.closeEditor()
	}
	ctx := c.ctx
	c.mu.Unlock()

	if switched {
		c.notify()
	}
	if err := c.reload(ctx); err != nil {
		c.logger.Debug("reload after session change failed", "event", event, "error", err)
	}
}

// reload fetches the collection for the current owner. Results of superseded loads are dropped, and an
// open editor is left alone.
func (c *Controller) reload(ctx context.Context) error {
	c.mu.Lock()
	if c.redirected || c.session == nil {
		c.mu.Unlock()
		return shared.ErrNotAuthenticated
	}
	c.loadSeq++
	seq := c.loadSeq
	owner := c.session.UserID
	c.mu.Unlock()

	songs, err := c.store.ListByOwner(ctx, owner)

	c.mu.Lock()
	if c.redirected || seq != c.loadSeq {
		c.mu.Unlock()
		return err
	}

	if err != nil {
		c.logger.Error("store request failed", "op", "list", "owner", owner, "error", err)
		if _, editing := c.state.(EditorState); editing {
			c.mu.Unlock()
			return err
		}
		message := shared.MsgLoadFailed
		if errors.Is(err, shared.ErrServiceUnavailable) {
			message = shared.MsgConnectFailed
		}
		c.state = ErrorState{Message: message}
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.songs = songs
	if _, editing := c.state.(EditorState); editing {
		c.mu.Unlock()
		return nil
	}
	c.state = LibraryState{Songs: songs}
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Controller) redirect() {
	c.mu.Lock()
	if c.redirected {
		c.mu.Unlock()
		return
	}
	c.redirected = true
	c.session = nil
	c.songs = nil
	c.buffer = nil
	c.epoch++
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.logger.Info("redirecting to sign in", "route", LoginRoute)
	c.nav.Redirect(LoginRoute)
	c.notify()
}

// edit applies fn to the buffer and republishes the editor state.
func (c *Controller) edit(fn func(*editor.Buffer) error) error {
	c.mu.Lock()
	es, err := c.editorState()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if err := fn(c.buffer); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = c.snapshot(es.Saving, es.Notice)
	c.mu.Unlock()
	c.notify()
	return nil
}

// check verifies the controller is live and showing want. Callers hold c.mu.
func (c *Controller) check(want Kind) error {
	if c.redirected {
		return shared.ErrNotAuthenticated
	}
	if got := c.state.Kind(); got != want {
		return fmt.Errorf("%w: %s is not available from %s", shared.ErrInvalidTransition, want, got)
	}
	return nil
}

// editorState returns the current editor state. Callers hold c.mu.
func (c *Controller) editorState() (EditorState, error) {
	if c.redirected {
		return EditorState{}, shared.ErrNotAuthenticated
	}
	es, ok := c.state.(EditorState)
	if !ok || c.buffer == nil {
		return EditorState{}, fmt.Errorf("%w: not editing from %s", shared.ErrInvalidTransition, c.state.Kind())
	}
	return es, nil
}

// openEditor installs b as the working buffer. Callers hold c.mu.
func (c *Controller) openEditor(b *editor.Buffer) {
	c.buffer = b
	c.epoch++
	c.state = c.snapshot(false, "")
}

// closeEditor discards the buffer and shows the last loaded library. Callers hold c.mu.
func (c *Controller) closeEditor() {
	if c.buffer != nil {
		c.buffer.Reset()
	}
	c.buffer = nil
	c.epoch++
	c.state = LibraryState{Songs: c.songs}
}

func (c *Controller) snapshot(saving bool, notice string) EditorState {
	return EditorState{
		Editing: c.buffer.Editing(),
		Title:   c.buffer.Title(),
		Lines:   c.buffer.Lines(),
		Saving:  saving,
		Notice:  notice,
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	state := copyState(c.state)
	fns := make([]func(State), len(c.observers))
	for i, o := range c.observers {
		fns[i] = o.fn
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
