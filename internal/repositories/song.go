package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

// SongRepository implements [models.CollectionStore] on the songs table.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

const songColumns = `id, title, lines, user_id, created_at, updated_at`

// ListByOwner returns every song owned by owner, most recently modified first.
func (r *SongRepository) ListByOwner(ctx context.Context, owner string) ([]models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE user_id = ? ORDER BY updated_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, storeErr("query songs", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate songs", err)
	}
	return songs, nil
}

// Get retrieves one song by identifier, scoped to owner.
func (r *SongRepository) Get(ctx context.Context, id, owner string) (models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ? AND user_id = ?`

	song, err := scanSong(r.db.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Song{}, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return song, err
}

// Insert adds song. Reusing an identifier fails with [shared.ErrConflict].
func (r *SongRepository) Insert(ctx context.Context, song models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	lines, err := encodeLines(song.Lines)
	if err != nil {
		return err
	}

	query := `INSERT INTO songs (` + songColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		song.ID,
		song.Title,
		lines,
		song.UserID,
		formatTime(song.CreatedAt),
		formatTime(song.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: song %s", shared.ErrConflict, song.ID)
	}
	if err != nil {
		return storeErr("insert song", err)
	}
	return nil
}

// Update replaces title, lines and updated_at of the song matching both identifier and owner.
//
// Songs owned by someone else are indistinguishable from missing ones.
func (r *SongRepository) Update(ctx context.Context, song models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	lines, err := encodeLines(song.Lines)
	if err != nil {
		return err
	}

	query := `
		UPDATE songs
		SET title = ?, lines = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	result, err := r.db.ExecContext(ctx, query, song.Title, lines, formatTime(song.UpdatedAt), song.ID, song.UserID)
	if err != nil {
		return storeErr("update song", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storeErr("get affected rows", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, song.ID)
	}
	return nil
}

// Delete removes the song matching both identifier and owner.
//
// Deleting a song that is missing or owned by another user is a no-op.
func (r *SongRepository) Delete(ctx context.Context, id, owner string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ? AND user_id = ?`, id, owner); err != nil {
		return storeErr("delete song", err)
	}
	return nil
}

// CountByOwner returns how many songs owner has.
func (r *SongRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs WHERE user_id = ?`, owner).Scan(&n); err != nil {
		return 0, storeErr("count songs", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (models.Song, error) {
	var (
		song               models.Song
		lines              string
		createdAt, updated string
	)

	if err := row.Scan(&song.ID, &song.Title, &lines, &song.UserID, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return song, err
		}
		return song, storeErr("scan song", err)
	}

	if err := json.Unmarshal([]byte(lines), &song.Lines); err != nil {
		return song, storeErr("decode lines of song "+song.ID, err)
	}
	if song.Lines == nil {
		song.Lines = []models.Line{}
	}

	var err error
	if song.CreatedAt, err = parseTime(createdAt); err != nil {
		return song, storeErr("parse created_at", err)
	}
	if song.UpdatedAt, err = parseTime(updated); err != nil {
		return song, storeErr("parse updated_at", err)
	}
	return song, nil
}

func encodeLines(lines []models.Line) (string, error) {
	if lines == nil {
		lines = []models.Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode lines: %v", shared.ErrInvalidInput, err)
	}
	return string(data), nil
}
