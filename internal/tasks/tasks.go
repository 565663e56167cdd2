package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/flutenotes/internal/formatter"
	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

// SongExportResult is the outcome of exporting a single song.
type SongExportResult struct {
	SongID  string
	Title   string
	Success bool
	Files   []string
	Error   error
}

// BulkExportResult summarizes a [LibraryEngine.BulkExport] run.
type BulkExportResult struct {
	TotalSongs        int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []SongExportResult
}

// LibraryEngine runs jobs over a collection store.
type LibraryEngine struct {
	store  models.CollectionStore
	logger *log.Logger
}

// NewLibraryEngine creates an engine reading from store.
func NewLibraryEngine(store models.CollectionStore, logger *log.Logger) *LibraryEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LibraryEngine{store: store, logger: shared.WithLogger(logger, "component", "tasks")}
}

// ExportSong writes one of owner's songs in format f to path. An empty path uses [formatter.Filename].
func (e *LibraryEngine) ExportSong(ctx context.Context, owner, id string, f formatter.Format, path string) (string, error) {
	songs, err := e.load(ctx, owner)
	if err != nil {
		return "", err
	}

	song, ok := models.FindSong(songs, id)
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return formatter.WriteExport(song, f, path)
}

func (e *LibraryEngine) load(ctx context.Context, owner string) ([]models.Song, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: store not initialized", shared.ErrServiceUnavailable)
	}
	if owner == "" {
		return nil, shared.ErrNotAuthenticated
	}

	songs, err := e.store.ListByOwner(ctx, owner)
	if err != nil {
		e.logger.Error("store request failed", "op", "list", "owner", owner, "error", err)
		return nil, err
	}
	return songs, nil
}

// sendProgress sends a progress update through the channel without blocking.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
