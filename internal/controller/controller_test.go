package controller

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
	testutil "github.com/desertthunder/flutenotes/internal/testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type routeLog struct {
	mu     sync.Mutex
	routes []string
}

func (r *routeLog) Redirect(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *routeLog) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

type fixture struct {
	ctl     *Controller
	store   *testutil.MemoryStore
	gateway *testutil.FakeGateway
	nav     *routeLog
	ids     int
	now     time.Time
}

func newFixture(t *testing.T, session *models.Session, songs ...models.Song) *fixture {
	t.Helper()

	f := &fixture{
		store:   testutil.NewMemoryStore(songs...),
		gateway: testutil.NewFakeGateway(session),
		nav:     &routeLog{},
		now:     baseTime.Add(time.Hour),
	}
	f.ctl = New(f.store, f.gateway, f.nav, Options{
		SongID: func() string {
			f.ids++
			return "song-" + string(rune('a'+f.ids-1))
		},
		Now:    func() time.Time { return f.now },
		Logger: shared.NewLogger(io.Discard),
	})
	t.Cleanup(f.ctl.Close)
	return f
}

func alice() *models.Session {
	return &models.Session{UserID: "user-alice", Email: "alice@example.com", ExpiresAt: baseTime.Add(24 * time.Hour)}
}

func seeded(id, owner, title string, updated time.Time) models.Song {
	return models.Song{
		ID:        id,
		Title:     title,
		Lines:     []models.Line{{ID: "1", Lyrics: "Om", FluteNotes: "Sa"}},
		UserID:    owner,
		CreatedAt: baseTime,
		UpdatedAt: updated,
	}
}

func mustLibrary(t *testing.T, ctl *Controller) LibraryState {
	t.Helper()
	lib, ok := ctl.State().(LibraryState)
	if !ok {
		t.Fatalf("expected library state, got %s", ctl.State().Kind())
	}
	return lib
}

func mustEditor(t *testing.T, ctl *Controller) EditorState {
	t.Helper()
	es, ok := ctl.State().(EditorState)
	if !ok {
		t.Fatalf("expected editor state, got %s", ctl.State().Kind())
	}
	return es
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("no session redirects to login", func(t *testing.T) {
		f := newFixture(t, nil)

		err := f.ctl.Start(ctx)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("Start() error = %v, want ErrNotAuthenticated", err)
		}
		if routes := f.nav.Routes(); len(routes) != 1 || routes[0] != LoginRoute {
			t.Errorf("expected one redirect to %s, got %v", LoginRoute, routes)
		}
		if f.store.Calls(testutil.OpList) != 0 {
			t.Error("store should not be queried without a session")
		}
		if !f.ctl.Redirected() {
			t.Error("expected Redirected() to be true")
		}
	})

	t.Run("session resolution failure redirects", func(t *testing.T) {
		f := newFixture(t, alice())
		f.gateway.FailWith(shared.ErrServiceUnavailable)

		if err := f.ctl.Start(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("Start() error = %v", err)
		}
		if len(f.nav.Routes()) != 1 {
			t.Errorf("expected a redirect, got %v", f.nav.Routes())
		}
	})

	t.Run("loads songs newest first", func(t *testing.T) {
		f := newFixture(t, alice(),
			seeded("old", "user-alice", "Old", baseTime),
			seeded("new", "user-alice", "New", baseTime.Add(time.Minute)),
			seeded("theirs", "user-bob", "Not Mine", baseTime.Add(2*time.Minute)),
		)

		if err := f.ctl.Start(ctx); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		lib := mustLibrary(t, f.ctl)
		if len(lib.Songs) != 2 {
			t.Fatalf("expected 2 songs, got %d", len(lib.Songs))
		}
		if lib.Songs[0].ID != "new" || lib.Songs[1].ID != "old" {
			t.Errorf("unexpected order: %s, %s", lib.Songs[0].ID, lib.Songs[1].ID)
		}
		if f.ctl.Session().Email != "alice@example.com" {
			t.Errorf("unexpected session %+v", f.ctl.Session())
		}
		if f.gateway.Subscribers() != 1 {
			t.Errorf("expected one subscription, got %d", f.gateway.Subscribers())
		}
	})

	t.Run("empty collection shows empty library", func(t *testing.T) {
		f := newFixture(t, alice())
		if err := f.ctl.Start(ctx); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if lib := mustLibrary(t, f.ctl); len(lib.Songs) != 0 {
			t.Errorf("expected no songs, got %d", len(lib.Songs))
		}
	})

	t.Run("load failure shows error and retry recovers", func(t *testing.T) {
		f := newFixture(t, alice(), seeded("a", "user-alice", "A", baseTime))
		f.store.FailOn(testutil.OpList, errors.New("disk on fire"))

		if err := f.ctl.Start(ctx); !errors.Is(err, shared.ErrStore) {
			t.Fatalf("Start() error = %v, want ErrStore", err)
		}
		es, ok := f.ctl.State().(ErrorState)
		if !ok {
			t.Fatalf("expected error state, got %s", f.ctl.State().Kind())
		}
		if es.Message != shared.MsgLoadFailed {
			t.Errorf("unexpected message %q", es.Message)
		}

		if err := f.ctl.StartNew(); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("StartNew() from error = %v", err)
		}

		f.store.FailOn(testutil.OpList, nil)
		if err := f.ctl.Retry(ctx); err != nil {
			t.Fatalf("Retry() error = %v", err)
		}
		if lib := mustLibrary(t, f.ctl); len(lib.Songs) != 1 {
			t.Errorf("expected 1 song after retry, got %d", len(lib.Songs))
		}
		if f.gateway.Subscribers() != 1 {
			t.Errorf("retry should not subscribe twice, got %d", f.gateway.Subscribers())
		}
	})

	t.Run("unreachable store uses connect message", func(t *testing.T) {
		f := newFixture(t, alice())
		f.store.FailOn(testutil.OpList, shared.ErrServiceUnavailable)

		_ = f.ctl.Start(ctx)
		es, ok := f.ctl.State().(ErrorState)
		if !ok || es.Message != shared.MsgConnectFailed {
			t.Errorf("expected connect failure message, got %+v", f.ctl.State())
		}
	})

	t.Run("retry only from error", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)
		if err := f.ctl.Retry(ctx); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("Retry() from library = %v", err)
		}
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip of a new song", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)

		if err := f.ctl.StartNew(); err != nil {
			t.Fatalf("StartNew() error = %v", err)
		}
		es := mustEditor(t, f.ctl)
		if es.Kind() != KindNew || len(es.Lines) != 1 || es.CanRemoveLine() {
			t.Fatalf("unexpected new editor %+v", es)
		}

		_ = f.ctl.SetTitle("Test")
		line := es.Lines[0].ID
		_ = f.ctl.UpdateLine(line, models.FieldLyrics, "Sa Re Ga")
		_ = f.ctl.UpdateLine(line, models.FieldNotes, "C D E")

		if err := f.ctl.Save(ctx); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		lib := mustLibrary(t, f.ctl)
		if len(lib.Songs) != 1 {
			t.Fatalf("expected 1 song, got %d", len(lib.Songs))
		}
		got := lib.Songs[0]
		if got.Title != "Test" || got.UserID != "user-alice" || got.ID != "song-a" {
			t.Errorf("unexpected song %+v", got)
		}
		if len(got.Lines) != 1 || got.Lines[0].Lyrics != "Sa Re Ga" || got.Lines[0].FluteNotes != "C D E" {
			t.Errorf("unexpected lines %+v", got.Lines)
		}
		if !got.CreatedAt.Equal(f.now) || !got.UpdatedAt.Equal(f.now) {
			t.Errorf("unexpected timestamps %v %v", got.CreatedAt, got.UpdatedAt)
		}
	})

	t.Run("blank title makes no store call", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)
		_ = f.ctl.StartNew()
		_ = f.ctl.SetTitle("   ")

		if mustEditor(t, f.ctl).CanSave() {
			t.Error("save should be disabled for a blank title")
		}
		if err := f.ctl.Save(ctx); !errors.Is(err, shared.ErrEmptyTitle) {
			t.Fatalf("Save() error = %v, want ErrEmptyTitle", err)
		}
		if n := f.store.Calls(testutil.OpInsert); n != 0 {
			t.Errorf("expected no insert, got %d", n)
		}
		mustEditor(t, f.ctl)
	})

	t.Run("blank lines are dropped", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)
		_ = f.ctl.StartNew()
		_ = f.ctl.SetTitle("Drops")

		first := mustEditor(t, f.ctl).Lines[0].ID
		_ = f.ctl.UpdateLine(first, models.FieldLyrics, "kept")
		second, _ := f.ctl.AppendLine()
		_ = f.ctl.UpdateLine(second, models.FieldNotes, "   ")

		if err := f.ctl.Save(ctx); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		songs := f.store.All()
		if len(songs) != 1 || len(songs[0].Lines) != 1 || songs[0].Lines[0].Lyrics != "kept" {
			t.Errorf("unexpected stored song %+v", songs)
		}
	})

	t.Run("editing keeps id and creation time", func(t *testing.T) {
		original := seeded("keep", "user-alice", "Before", baseTime.Add(time.Minute))
		f := newFixture(t, alice(), original)
		_ = f.ctl.Start(ctx)

		if err := f.ctl.EditSong("keep"); err != nil {
			t.Fatalf("EditSong() error = %v", err)
		}
		es := mustEditor(t, f.ctl)
		if es.Kind() != KindEdit || es.Title != "Before" || es.Lines[0].Lyrics != "Om" {
			t.Fatalf("unexpected editor %+v", es)
		}

		_ = f.ctl.SetTitle("After")
		if err := f.ctl.Save(ctx); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if f.store.Calls(testutil.OpUpdate) != 1 || f.store.Calls(testutil.OpInsert) != 0 {
			t.Error("expected a single update")
		}

		got := mustLibrary(t, f.ctl).Songs[0]
		if got.ID != "keep" || got.Title != "After" {
			t.Errorf("unexpected song %+v", got)
		}
		if !got.CreatedAt.Equal(original.CreatedAt) {
			t.Errorf("created_at changed: %v", got.CreatedAt)
		}
		if !got.UpdatedAt.After(original.UpdatedAt) {
			t.Errorf("updated_at did not advance: %v", got.UpdatedAt)
		}
	})

	t.Run("updated_at advances with a stalled clock", func(t *testing.T) {
		original := seeded("stall", "user-alice", "Same", baseTime.Add(time.Hour))
		f := newFixture(t, alice(), original)
		_ = f.ctl.Start(ctx)
		_ = f.ctl.EditSong("stall")
		_ = f.ctl.Save(ctx)

		got := f.store.All()[0]
		if !got.UpdatedAt.Equal(original.UpdatedAt.Add(time.Microsecond)) {
			t.Errorf("expected bump by one microsecond, got %v", got.UpdatedAt)
		}
	})

	t.Run("failure keeps buffer and shows notice", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)
		_ = f.ctl.StartNew()
		_ = f.ctl.SetTitle("Unsaved")
		f.store.FailOn(testutil.OpInsert, errors.New("constraint"))

		if err := f.ctl.Save(ctx); !errors.Is(err, shared.ErrStore) {
			t.Fatalf("Save() error = %v", err)
		}
		es := mustEditor(t, f.ctl)
		if es.Title != "Unsaved" || es.Saving || es.Notice != shared.MsgSaveFailed {
			t.Errorf("unexpected editor after failure %+v", es)
		}

		f.store.FailOn(testutil.OpInsert, nil)
		if err := f.ctl.Save(ctx); err != nil {
			t.Fatalf("retry Save() error = %v", err)
		}
		mustLibrary(t, f.ctl)
	})

	t.Run("saving a song deleted elsewhere keeps the draft", func(t *testing.T) {
		f := newFixture(t, alice(), seeded("gone", "user-alice", "Before", baseTime))
		_ = f.ctl.Start(ctx)
		_ = f.ctl.EditSong("gone")
		_ = f.ctl.SetTitle("After")

		if err := f.store.Delete(ctx, "gone", "user-alice"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		if err := f.ctl.Save(ctx); !errors.Is(err, shared.ErrSongNotFound) {
			t.Fatalf("Save() error = %v, want ErrSongNotFound", err)
		}
		es := mustEditor(t, f.ctl)
		if es.Title != "After" || es.Saving || es.Notice != shared.MsgSaveFailed {
			t.Errorf("unexpected editor after failure %+v", es)
		}
		if len(f.store.All()) != 0 {
			t.Error("a failed update must not recreate the song")
		}
	})

	t.Run("second save while in flight is refused", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)
		_ = f.ctl.StartNew()
		_ = f.ctl.SetTitle("Slow")

		release := make(chan struct{})
		f.store.Hook(testutil.OpInsert, func() { <-release })

		done := make(chan error, 1)
		go func() { done <- f.ctl.Save(ctx) }()

		waitFor(t, "saving", func() bool {
			es, ok := f.ctl.State().(EditorState)
			return ok && es.Saving
		})
		if mustEditor(t, f.ctl).CanSave() {
			t.Error("save control should be disabled while saving")
		}
		if err := f.ctl.Save(ctx); !errors.Is(err, shared.ErrSaveInFlight) {
			t.Errorf("second Save() error = %v, want ErrSaveInFlight", err)
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if n := f.store.Calls(testutil.OpInsert); n != 1 {
			t.Errorf("expected exactly one insert, got %d", n)
		}
	})

	t.Run("save finishing after back does not reopen editor", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)
		_ = f.ctl.StartNew()
		_ = f.ctl.SetTitle("Late")

		release := make(chan struct{})
		f.store.Hook(testutil.OpInsert, func() { <-release })
		f.store.FailOn(testutil.OpInsert, errors.New("late failure"))

		done := make(chan error, 1)
		go func() { done <- f.ctl.Save(ctx) }()
		waitFor(t, "saving", func() bool {
			es, ok := f.ctl.State().(EditorState)
			return ok && es.Saving
		})

		if err := f.ctl.Back(ctx); err != nil {
			t.Fatalf("Back() error = %v", err)
		}
		close(release)
		<-done

		lib := mustLibrary(t, f.ctl)
		if lib.Notice != "" {
			t.Errorf("stale save should not leave a notice, got %q", lib.Notice)
		}
	})
}

func TestEditing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, alice())
	_ = f.ctl.Start(ctx)
	_ = f.ctl.StartNew()

	only := mustEditor(t, f.ctl).Lines[0].ID

	t.Run("last line cannot be removed", func(t *testing.T) {
		if err := f.ctl.RemoveLine(only); !errors.Is(err, shared.ErrLastLine) {
			t.Errorf("RemoveLine() error = %v", err)
		}
	})

	t.Run("append then remove", func(t *testing.T) {
		id, err := f.ctl.AppendLine()
		if err != nil {
			t.Fatalf("AppendLine() error = %v", err)
		}
		if id == only {
			t.Fatal("appended line reused an identifier")
		}
		if !mustEditor(t, f.ctl).CanRemoveLine() {
			t.Error("remove should be available with two lines")
		}
		if err := f.ctl.RemoveLine(only); err != nil {
			t.Fatalf("RemoveLine() error = %v", err)
		}
		lines := mustEditor(t, f.ctl).Lines
		if len(lines) != 1 || lines[0].ID != id {
			t.Errorf("unexpected lines %+v", lines)
		}
	})

	t.Run("unknown line", func(t *testing.T) {
		if err := f.ctl.UpdateLine("nope", models.FieldLyrics, "x"); !errors.Is(err, shared.ErrLineNotFound) {
			t.Errorf("UpdateLine() error = %v", err)
		}
	})

	t.Run("state snapshots are detached", func(t *testing.T) {
		es := mustEditor(t, f.ctl)
		es.Lines[0].Lyrics = "mutated"
		if mustEditor(t, f.ctl).Lines[0].Lyrics == "mutated" {
			t.Error("mutating a snapshot changed controller state")
		}
	})

	t.Run("back discards the buffer", func(t *testing.T) {
		_ = f.ctl.SetTitle("Thrown away")
		if err := f.ctl.Back(ctx); err != nil {
			t.Fatalf("Back() error = %v", err)
		}
		mustLibrary(t, f.ctl)
		if f.store.Calls(testutil.OpInsert) != 0 {
			t.Error("back should not save")
		}
		if err := f.ctl.SetTitle("x"); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("SetTitle() outside editor = %v", err)
		}
	})

	t.Run("edit unknown song", func(t *testing.T) {
		if err := f.ctl.EditSong("missing"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("EditSong() error = %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the song", func(t *testing.T) {
		f := newFixture(t, alice(),
			seeded("a", "user-alice", "A", baseTime),
			seeded("b", "user-alice", "B", baseTime.Add(time.Second)),
		)
		_ = f.ctl.Start(ctx)

		if err := f.ctl.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		lib := mustLibrary(t, f.ctl)
		if len(lib.Songs) != 1 || lib.Songs[0].ID != "b" {
			t.Errorf("unexpected songs %+v", lib.Songs)
		}
	})

	t.Run("cannot delete another owner's song", func(t *testing.T) {
		f := newFixture(t, alice(), seeded("bob-song", "user-bob", "Bob", baseTime))
		_ = f.ctl.Start(ctx)

		if err := f.ctl.Delete(ctx, "bob-song"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if len(f.store.All()) != 1 {
			t.Error("another owner's song was deleted")
		}
	})

	t.Run("failure keeps list and shows notice", func(t *testing.T) {
		f := newFixture(t, alice(), seeded("a", "user-alice", "A", baseTime))
		_ = f.ctl.Start(ctx)
		f.store.FailOn(testutil.OpDelete, errors.New("locked"))

		if err := f.ctl.Delete(ctx, "a"); !errors.Is(err, shared.ErrStore) {
			t.Fatalf("Delete() error = %v", err)
		}
		lib := mustLibrary(t, f.ctl)
		if len(lib.Songs) != 1 || lib.Notice != shared.MsgDeleteFailed {
			t.Errorf("unexpected library %+v", lib)
		}
	})
}

func TestSessionEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("sign out from editor redirects", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)
		_ = f.ctl.StartNew()
		_ = f.ctl.SetTitle("Abandoned")

		if err := f.ctl.SignOut(ctx); err != nil {
			t.Fatalf("SignOut() error = %v", err)
		}
		if routes := f.nav.Routes(); len(routes) != 1 || routes[0] != LoginRoute {
			t.Errorf("expected exactly one redirect, got %v", routes)
		}
		if f.ctl.Session() != nil {
			t.Error("session should be cleared")
		}
		if err := f.ctl.Save(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("Save() after sign out = %v", err)
		}
		if f.gateway.Subscribers() != 0 {
			t.Errorf("expected unsubscribe on redirect, got %d", f.gateway.Subscribers())
		}
	})

	t.Run("gateway sign out redirects", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)

		f.gateway.Emit(models.EventSignedOut, nil)
		if !f.ctl.Redirected() {
			t.Error("expected redirect")
		}
		if err := f.ctl.StartNew(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("StartNew() after redirect = %v", err)
		}
	})

	t.Run("token refresh keeps the editor", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)
		_ = f.ctl.StartNew()
		_ = f.ctl.SetTitle("Draft")

		refreshed := alice()
		refreshed.ExpiresAt = refreshed.ExpiresAt.Add(time.Hour)
		f.gateway.Emit(models.EventTokenRefreshed, refreshed)

		if es := mustEditor(t, f.ctl); es.Title != "Draft" {
			t.Errorf("editor lost its buffer: %+v", es)
		}
		if !f.ctl.Session().ExpiresAt.Equal(refreshed.ExpiresAt) {
			t.Error("session was not updated")
		}
	})

	t.Run("different user closes the editor and reloads", func(t *testing.T) {
		f := newFixture(t, alice(),
			seeded("a", "user-alice", "A", baseTime),
			seeded("b", "user-bob", "B", baseTime),
		)
		_ = f.ctl.Start(ctx)
		_ = f.ctl.StartNew()

		f.gateway.Emit(models.EventSignedIn, &models.Session{UserID: "user-bob", Email: "bob@example.com"})

		lib := mustLibrary(t, f.ctl)
		if len(lib.Songs) != 1 || lib.Songs[0].ID != "b" {
			t.Errorf("expected bob's songs, got %+v", lib.Songs)
		}
	})

	t.Run("close unsubscribes", func(t *testing.T) {
		f := newFixture(t, alice())
		_ = f.ctl.Start(ctx)
		f.ctl.Close()
		f.ctl.Close()

		if f.gateway.Subscribers() != 0 {
			t.Errorf("expected no listeners, got %d", f.gateway.Subscribers())
		}
	})
}

func TestOnChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, alice())

	var kinds []Kind
	stop := f.ctl.OnChange(func(s State) { kinds = append(kinds, s.Kind()) })

	_ = f.ctl.Start(ctx)
	_ = f.ctl.StartNew()
	stop()
	_ = f.ctl.SetTitle("ignored")

	want := []Kind{KindLoading, KindLibrary, KindNew}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("change %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindLoading, "loading"},
		{KindError, "error"},
		{KindLibrary, "library"},
		{KindNew, "new"},
		{KindEdit, "edit"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
