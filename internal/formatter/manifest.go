package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/flutenotes/internal/shared"
)

// ManifestEntry records the outcome of exporting one song.
type ManifestEntry struct {
	SongID  string   `json:"song_id"`
	Title   string   `json:"title"`
	Success bool     `json:"success"`
	Files   []string `json:"files,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ExportManifest summarizes a bulk export. It is written as export_manifest.json in the output directory.
type ExportManifest struct {
	Format     Format          `json:"format"`
	Owner      string          `json:"owner"`
	ExportedAt time.Time       `json:"exported_at"`
	TotalSongs int             `json:"total_songs"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Songs      []ManifestEntry `json:"songs"`
}

// WriteManifest encodes manifest as indented JSON at path.
func WriteManifest(manifest ExportManifest, path string) error {
	if manifest.Songs == nil {
		manifest.Songs = []ManifestEntry{}
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
