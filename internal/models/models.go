// package models defines the data model for the flute notes library
package models

import "context"

// CollectionStore persists [Song] records keyed by owner and identifier.
//
// Every operation is scoped to the owner passed in. Implementations never partially apply a write.
type CollectionStore interface {
	// ListByOwner returns owner's songs, most recently modified first.
	ListByOwner(ctx context.Context, owner string) ([]Song, error)
	// Insert adds a new song. An existing identifier is a conflict.
	Insert(ctx context.Context, song Song) error
	// Update replaces the song matching both identifier and owner.
	Update(ctx context.Context, song Song) error
	// Delete removes the song matching both identifier and owner.
	Delete(ctx context.Context, id, owner string) error
}

// SessionGateway issues and invalidates sessions and announces transitions to subscribers.
type SessionGateway interface {
	// CurrentSession returns nil when nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)
	// Subscribe registers listener until unsubscribe is called.
	Subscribe(listener SessionListener) (unsubscribe func())
	SignOut(ctx context.Context) error
	ResendConfirmation(ctx context.Context, kind, address, redirectTo string) error
}
