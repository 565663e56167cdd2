package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/flutenotes/internal/formatter"
	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 20.0
	manifestName     = "export_manifest.json"
)

// BulkExportOpts contains configuration for bulk song exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Base output directory (default: flutenotes_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max: 10)
	RateLimit  float64          // Songs dispatched per second (default: 20)
	Now        func() time.Time
}

type songExportJob struct {
	step int
	song models.Song
}

// BulkExport writes owner's songs to opts.OutputDir using a rate limited worker pool.
//
// An empty ids exports the whole collection. Identifiers not in the collection are reported as failed
// results rather than aborting the run. Cancelling ctx stops dispatch; songs already handed to a worker
// still finish and the manifest records what was written.
func (e *LibraryEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	owner string,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	format, err := formatter.ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = format
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("flutenotes_export_%d", opts.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	e.sendProgress(prog, loadingLibraryUpdate())
	songs, err := e.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	selected, missing := selectSongs(songs, ids)
	total := len(selected) + len(missing)

	result := &BulkExportResult{
		TotalSongs:      total,
		OutputDirectory: opts.OutputDir,
		Results:         make([]SongExportResult, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan songExportJob, len(selected))
	results := make(chan SongExportResult, total)

	for _, id := range missing {
		results <- SongExportResult{
			SongID: id,
			Title:  fmt.Sprintf("Unknown (%s)", id),
			Error:  fmt.Errorf("%w: %s", shared.ErrSongNotFound, id),
		}
	}

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(&wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, song := range selected {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			e.sendProgress(prog, exportingSongUpdate(i+1, len(selected), song.Title))
			jobs <- songExportJob{step: i + 1, song: song}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, total, res.Title, len(res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("song export failed", "song_id", res.SongID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, total, res.Title, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	e.sendProgress(prog, manifestUpdate(manifestPath))
	if err := formatter.WriteManifest(buildManifest(result, opts, owner), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker writes songs from jobs until the channel closes.
func (e *LibraryEngine) exportWorker(
	wg *sync.WaitGroup,
	jobs <-chan songExportJob,
	results chan<- SongExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		results <- exportSingleSong(job.song, opts)
	}
}

func exportSingleSong(song models.Song, opts BulkExportOpts) SongExportResult {
	result := SongExportResult{SongID: song.ID, Title: song.Title, Files: []string{}}

	path := filepath.Join(opts.OutputDir, formatter.Filename(song, opts.Format))
	written, err := formatter.WriteExport(song, opts.Format, path)
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}

	result.Files = []string{written}
	result.Success = true
	return result
}

// selectSongs picks ids out of songs in request order, or every song when ids is empty.
func selectSongs(songs []models.Song, ids []string) (selected []models.Song, missing []string) {
	if len(ids) == 0 {
		return songs, nil
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		if song, ok := models.FindSong(songs, id); ok {
			selected = append(selected, song)
		} else {
			missing = append(missing, id)
		}
	}
	return selected, missing
}

func buildManifest(result *BulkExportResult, opts BulkExportOpts, owner string) formatter.ExportManifest {
	manifest := formatter.ExportManifest{
		Format:     opts.Format,
		Owner:      owner,
		ExportedAt: opts.Now().UTC(),
		TotalSongs: result.TotalSongs,
		Successful: result.SuccessfulExports,
		Failed:     result.FailedExports,
		Songs:      make([]formatter.ManifestEntry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		entry := formatter.ManifestEntry{
			SongID:  res.SongID,
			Title:   res.Title,
			Success: res.Success,
			Files:   res.Files,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		manifest.Songs = append(manifest.Songs, entry)
	}
	return manifest
}
