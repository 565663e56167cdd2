package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

func TestSongRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Insert", func(t *testing.T) {
		t.Run("DuplicateID", func(t *testing.T) {
			db := setupTestDB(t)
			owner := createTestUser(t, db, "player@example.com")
			repo := NewSongRepository(db)

			if err := repo.Insert(ctx, testSong("s1", owner, "First", baseTime)); err != nil {
				t.Fatalf("failed to insert song: %v", err)
			}

			err := repo.Insert(ctx, testSong("s1", owner, "Second", baseTime))
			if !errors.Is(err, shared.ErrConflict) {
				t.Fatalf("expected ErrConflict, got %v", err)
			}
		})

		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			owner := createTestUser(t, db, "player@example.com")
			repo := NewSongRepository(db)

			err := repo.Insert(ctx, testSong("s1", owner, "  ", baseTime))
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("UnknownOwner", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewSongRepository(db)

			err := repo.Insert(ctx, testSong("s1", "ghost", "Test", baseTime))
			if !errors.Is(err, shared.ErrStore) {
				t.Fatalf("expected ErrStore, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			owner := createTestUser(t, db, "player@example.com")
			repo := NewSongRepository(db)

			err := repo.Update(ctx, testSong("missing", owner, "Test", baseTime))
			if !errors.Is(err, shared.ErrSongNotFound) {
				t.Fatalf("expected ErrSongNotFound, got %v", err)
			}
		})

		t.Run("OtherOwner", func(t *testing.T) {
			db := setupTestDB(t)
			alice := createTestUser(t, db, "alice@example.com")
			mallory := createTestUser(t, db, "mallory@example.com")
			repo := NewSongRepository(db)

			if err := repo.Insert(ctx, testSong("s1", alice, "Alice's", baseTime)); err != nil {
				t.Fatalf("failed to insert song: %v", err)
			}

			err := repo.Update(ctx, testSong("s1", mallory, "Hijacked", baseTime.Add(time.Second)))
			if !errors.Is(err, shared.ErrSongNotFound) {
				t.Fatalf("expected ErrSongNotFound, got %v", err)
			}

			got, _ := repo.Get(ctx, "s1", alice)
			if got.Title != "Alice's" {
				t.Errorf("song changed by another owner: %+v", got)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewSongRepository(db)

			if _, err := repo.Get(ctx, "nope", "nobody"); !errors.Is(err, shared.ErrSongNotFound) {
				t.Fatalf("expected ErrSongNotFound, got %v", err)
			}
		})
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSongRepository(db)
		db.Close()

		if _, err := repo.ListByOwner(ctx, "u1"); !errors.Is(err, shared.ErrStore) {
			t.Errorf("expected ErrStore from list, got %v", err)
		}
		if err := repo.Delete(ctx, "s1", "u1"); !errors.Is(err, shared.ErrStore) {
			t.Errorf("expected ErrStore from delete, got %v", err)
		}
	})
}

func TestUserRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("DuplicateEmail", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		createTestUser(t, db, "player@example.com")

		err := repo.Create(ctx, models.NewUser("PLAYER@example.com", "hash", models.ProviderEmail))
		if !errors.Is(err, shared.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)

		err := repo.Create(ctx, models.NewUser("no-at-sign", "hash", models.ProviderEmail))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)

		if _, err := repo.Get(ctx, "missing"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		if _, err := repo.GetByEmail(ctx, "missing@example.com"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		if err := repo.Confirm(ctx, "missing", baseTime); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestSessionRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownToken", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)

		if _, err := repo.GetByAccessToken(ctx, "nope"); !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("RotateTwice", func(t *testing.T) {
		db := setupTestDB(t)
		owner := createTestUser(t, db, "player@example.com")
		repo := NewSessionRepository(db)

		rec := SessionRecord{AccessToken: "a1", RefreshToken: "r1", UserID: owner, ExpiresAt: baseTime, RefreshExpiresAt: baseTime, CreatedAt: baseTime}
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		next := rec
		next.AccessToken, next.RefreshToken = "a2", "r2"
		if err := repo.Rotate(ctx, "a1", next); err != nil {
			t.Fatalf("first rotation failed: %v", err)
		}

		again := rec
		again.AccessToken, again.RefreshToken = "a3", "r3"
		if err := repo.Rotate(ctx, "a1", again); !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}
	})
}

func TestConfirmationRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		now   time.Time
		setup func(t *testing.T, repo *ConfirmationRepository)
	}{
		{name: "Unknown", token: "missing", now: baseTime},
		{name: "Expired", token: "code", now: baseTime.Add(2 * time.Hour)},
		{
			name: "AlreadyUsed", token: "code", now: baseTime,
			setup: func(t *testing.T, repo *ConfirmationRepository) {
				if _, err := repo.Consume(ctx, "code", baseTime); err != nil {
					t.Fatalf("first consume failed: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			owner := createTestUser(t, db, "player@example.com")
			repo := NewConfirmationRepository(db)

			c := Confirmation{Token: "code", UserID: owner, ExpiresAt: baseTime.Add(time.Hour), CreatedAt: baseTime}
			if err := repo.Create(ctx, c); err != nil {
				t.Fatalf("failed to create confirmation: %v", err)
			}
			if tt.setup != nil {
				tt.setup(t, repo)
			}

			if _, err := repo.Consume(ctx, tt.token, tt.now); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
