package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flutenotes/internal/controller"
	"github.com/desertthunder/flutenotes/internal/formatter"
	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
	"github.com/desertthunder/flutenotes/internal/tasks"
)

// parseLine splits "lyrics|flute notes". Text without a separator is all lyrics.
func parseLine(raw string) (lyrics, notes string) {
	lyrics, notes, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(lyrics), strings.TrimSpace(notes)
}

// setLine writes raw into the buffer line id.
func setLine(ctl *controller.Controller, id, raw string) error {
	lyrics, notes := parseLine(raw)
	if err := ctl.UpdateLine(id, models.FieldLyrics, lyrics); err != nil {
		return err
	}
	return ctl.UpdateLine(id, models.FieldNotes, notes)
}

func appendLines(ctl *controller.Controller, lines []string) error {
	for _, raw := range lines {
		id, err := ctl.AppendLine()
		if err != nil {
			return err
		}
		if err := setLine(ctl, id, raw); err != nil {
			return err
		}
	}
	return nil
}

// save commits the open editor, folding the on-screen notice into the error.
func save(ctx context.Context, ctl *controller.Controller) error {
	if err := ctl.Save(ctx); err != nil {
		if es, ok := ctl.State().(controller.EditorState); ok && es.Notice != "" {
			return fmt.Errorf("%s: %w", es.Notice, err)
		}
		return err
	}
	return nil
}

// SongsList prints the library, most recently modified first.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	ctl, lib, err := r.library(ctx, controller.Options{})
	if err != nil {
		return err
	}
	defer ctl.Close()

	songs := lib.Songs
	if songs == nil {
		songs = []models.Song{}
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if session := ctl.Session(); session != nil {
		r.writePlainHeader("Flute Notes · " + session.Email)
	}

	if len(songs) == 0 {
		r.writePlain("No songs yet. Run 'flutenotes songs new --title \"...\"' to write your first flute song.\n")
		return nil
	}

	r.writePlain("Found %s:\n\n", shared.Plural(len(songs), "song", "songs"))
	for i, s := range songs {
		r.writePlain("%d. %s\n", i+1, s.Title)
		r.writePlain("   ID: %s\n", s.ID)
		r.writePlain("   Lines: %s\n", shared.Plural(len(s.Lines), "line", "lines"))
		r.writePlain("   Last modified: %s\n", s.UpdatedAt.Local().Format("Jan 2, 2006 15:04"))
		r.writePlain("\n")
	}
	return nil
}

// SongsShow renders one song to the output.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ctl, lib, err := r.library(ctx, controller.Options{})
	if err != nil {
		return err
	}
	defer ctl.Close()

	song, ok := models.FindSong(lib.Songs, id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}

	data, err := formatter.Render(song, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// SongsNew creates a song from --title and --line flags.
func (r *Runner) SongsNew(ctx context.Context, cmd *cli.Command) error {
	var created string
	ctl, _, err := r.library(ctx, controller.Options{
		SongID: func() string {
			created = shared.GenerateID()
			return created
		},
	})
	if err != nil {
		return err
	}
	defer ctl.Close()

	if err := ctl.StartNew(); err != nil {
		return err
	}
	if err := ctl.SetTitle(cmd.String("title")); err != nil {
		return err
	}

	lines := cmd.StringSlice("line")
	if len(lines) > 0 {
		es := ctl.State().(controller.EditorState)
		if err := setLine(ctl, es.Lines[0].ID, lines[0]); err != nil {
			return err
		}
		if err := appendLines(ctl, lines[1:]); err != nil {
			return err
		}
	}

	if err := save(ctx, ctl); err != nil {
		return err
	}

	r.logger.Info("song created", "song_id", created)
	r.writePlain("✓ Created %q\n", cmd.String("title"))
	return r.writePlain("  ID: %s\n", created)
}

// SongsEdit updates a song's title, replaces its lines with --line, or appends with --append.
func (r *Runner) SongsEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}
	if !cmd.IsSet("title") && !cmd.IsSet("line") && !cmd.IsSet("append") {
		return fmt.Errorf("%w: nothing to change; pass --title, --line or --append", shared.ErrMissingArgument)
	}

	ctl, _, err := r.library(ctx, controller.Options{})
	if err != nil {
		return err
	}
	defer ctl.Close()

	if err := ctl.EditSong(id); err != nil {
		return err
	}

	if cmd.IsSet("title") {
		if err := ctl.SetTitle(cmd.String("title")); err != nil {
			return err
		}
	}

	if lines := cmd.StringSlice("line"); len(lines) > 0 {
		es := ctl.State().(controller.EditorState)
		for _, l := range es.Lines[1:] {
			if err := ctl.RemoveLine(l.ID); err != nil {
				return err
			}
		}
		if err := setLine(ctl, es.Lines[0].ID, lines[0]); err != nil {
			return err
		}
		if err := appendLines(ctl, lines[1:]); err != nil {
			return err
		}
	}

	if err := appendLines(ctl, cmd.StringSlice("append")); err != nil {
		return err
	}

	title := ctl.State().(controller.EditorState).Title
	if err := save(ctx, ctl); err != nil {
		return err
	}
	return r.writePlain("✓ Saved %q\n", title)
}

// SongsDelete removes a song from the library.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}

	ctl, lib, err := r.library(ctx, controller.Options{})
	if err != nil {
		return err
	}
	defer ctl.Close()

	song, ok := models.FindSong(lib.Songs, id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}

	if err := ctl.Delete(ctx, id); err != nil {
		if lib, ok := ctl.State().(controller.LibraryState); ok && lib.Notice != "" {
			return fmt.Errorf("%s: %w", lib.Notice, err)
		}
		return err
	}
	return r.writePlain("✓ Deleted %q\n", song.Title)
}

// SongsExport writes one song to a file, or several to a directory with a manifest.
func (r *Runner) SongsExport(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	all := cmd.Bool("all")
	if !all && len(ids) == 0 {
		return fmt.Errorf("%w: pass one or more song ids, or --all", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ctl, _, err := r.library(ctx, controller.Options{})
	if err != nil {
		return err
	}
	defer ctl.Close()
	owner := ctl.Session().UserID

	if !all && len(ids) == 1 {
		path, err := r.engine.ExportSong(ctx, owner, ids[0], format, cmd.String("output"))
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported to %s\n", path)
	}
	if all {
		ids = nil
	}

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = r.config.Export.Workers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = r.config.Export.RateLimit
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.BulkExport(ctx, progress, owner, ids, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("Export complete")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	r.writePlain("Exported: %d/%d", result.SuccessfulExports, result.TotalSongs)
	if result.FailedExports > 0 {
		r.writePlain(" (%d failed)", result.FailedExports)
	}
	return r.writePlain("\n")
}
