package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	LoadLibrary Phase = iota
	ExportSong
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case LoadLibrary:
		return "load_library"
	case ExportSong:
		return "export_song"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func loadingLibraryUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: LoadLibrary, Step: 1, Total: 1, Message: "Loading songs..."}
}

func exportingSongUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSong,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, title),
	}
}

func exportCompletedUpdate(step, total int, title string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSong,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, title, filesCount),
	}
}

func exportFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSong,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: WriteManifest, Step: 1, Total: 1, Message: fmt.Sprintf("Writing %s", path)}
}
