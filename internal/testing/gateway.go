package testing

import (
	"context"
	"sync"

	"github.com/desertthunder/flutenotes/internal/models"
)

// ResendCall records one [FakeGateway.ResendConfirmation] request.
type ResendCall struct {
	Kind, Address, RedirectTo string
}

// FakeGateway is a [models.SessionGateway] whose session is set directly by tests.
type FakeGateway struct {
	mu         sync.Mutex
	session    *models.Session
	err        error
	listeners  map[int]models.SessionListener
	order      []int
	next       int
	SignOutErr error
	ResendErr  error
	resends    []ResendCall
}

// NewFakeGateway creates a gateway that reports session as current.
func NewFakeGateway(session *models.Session) *FakeGateway {
	return &FakeGateway{session: session, listeners: make(map[int]models.SessionListener)}
}

// FailWith makes CurrentSession return err.
func (g *FakeGateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *FakeGateway) CurrentSession(ctx context.Context) (*models.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	if g.session == nil {
		return nil, nil
	}
	s := *g.session
	return &s, nil
}

func (g *FakeGateway) Subscribe(listener models.SessionListener) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	id := g.next
	g.listeners[id] = listener
	g.order = append(g.order, id)

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.listeners, id)
	}
}

// Subscribers reports how many listeners are registered.
func (g *FakeGateway) Subscribers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.listeners)
}

// Emit replaces the current session and notifies listeners in registration order.
func (g *FakeGateway) Emit(event models.AuthEvent, session *models.Session) {
	g.mu.Lock()
	if event == models.EventSignedOut {
		session = nil
	}
	g.session = session
	var fns []models.SessionListener
	for _, id := range g.order {
		if fn, ok := g.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	g.mu.Unlock()

	for _, fn := range fns {
		var s *models.Session
		if session != nil {
			c := *session
			s = &c
		}
		fn(event, s)
	}
}

func (g *FakeGateway) SignOut(ctx context.Context) error {
	g.mu.Lock()
	err := g.SignOutErr
	g.mu.Unlock()
	if err != nil {
		return err
	}
	g.Emit(models.EventSignedOut, nil)
	return nil
}

func (g *FakeGateway) ResendConfirmation(ctx context.Context, kind, address, redirectTo string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resends = append(g.resends, ResendCall{Kind: kind, Address: address, RedirectTo: redirectTo})
	return g.ResendErr
}

// Resends returns the recorded resend requests.
func (g *FakeGateway) Resends() []ResendCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ResendCall(nil), g.resends...)
}
