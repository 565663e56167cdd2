package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flutenotes/internal/auth"
	"github.com/desertthunder/flutenotes/internal/controller"
	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/repositories"
	"github.com/desertthunder/flutenotes/internal/shared"
	"github.com/desertthunder/flutenotes/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, store and gateway are opened on first use so that setup can run before a database exists.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	openBrowser func(string) error

	db      *sql.DB
	ownsDB  bool
	mailer  auth.Mailer
	store   models.CollectionStore
	gateway *auth.LocalGateway
	engine  *tasks.LibraryEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Logger      *log.Logger
	Output      io.Writer
	DB          *sql.DB     // DB, when set, is used as-is and never closed by the runner
	Mailer      auth.Mailer // Mailer defaults to the [mail] config section
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
		db:          opts.DB,
		mailer:      opts.Mailer,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, songsCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger. Services opened afterwards log through it.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// services opens the database and builds the store, gateway and export engine once.
func (r *Runner) services(ctx context.Context) error {
	if r.gateway != nil {
		return nil
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(ctx, r.config.Database)
		if err != nil {
			r.logger.Error("failed to open database", "path", r.config.Database.Path, "error", err)
			return fmt.Errorf("%s: %w", shared.MsgConnectFailed, err)
		}
		r.db = db
		r.ownsDB = true
	}

	if r.mailer == nil {
		mailer, err := auth.NewMailer(r.config.Mail.URL, r.config.Mail.From, r.logger)
		if err != nil {
			return fmt.Errorf("failed to configure mailer: %w", err)
		}
		r.mailer = mailer
	}

	opts, err := auth.OptionsFromConfig(r.config)
	if err != nil {
		return err
	}

	songs := repositories.NewSongRepository(r.db)
	r.store = songs
	r.gateway = auth.NewLocalGateway(r.db, r.mailer, opts, r.logger)
	r.engine = tasks.NewLibraryEngine(songs, r.logger)
	return nil
}

// Close releases the database when the runner opened it.
func (r *Runner) Close() error {
	if r.db != nil && r.ownsDB {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// newController builds a view controller over the runner's store and gateway.
func (r *Runner) newController(nav controller.Navigator, opts controller.Options) *controller.Controller {
	if opts.Logger == nil {
		opts.Logger = r.logger
	}
	return controller.New(r.store, r.gateway, nav, opts)
}

// library starts a controller and returns it on the library screen. The caller must close it.
//
// Without a session the error wraps [shared.ErrNotAuthenticated]; a load failure carries the user-facing message.
func (r *Runner) library(ctx context.Context, opts controller.Options) (*controller.Controller, controller.LibraryState, error) {
	if err := r.services(ctx); err != nil {
		return nil, controller.LibraryState{}, err
	}

	ctl := r.newController(nil, opts)
	if err := ctl.Start(ctx); err != nil {
		state := ctl.State()
		ctl.Close()
		if es, ok := state.(controller.ErrorState); ok {
			return nil, controller.LibraryState{}, fmt.Errorf("%s: %w", es.Message, err)
		}
		return nil, controller.LibraryState{}, err
	}

	lib, ok := ctl.State().(controller.LibraryState)
	if !ok {
		ctl.Close()
		return nil, controller.LibraryState{}, fmt.Errorf("%w: library did not load", shared.ErrInvalidTransition)
	}
	return ctl, lib, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
