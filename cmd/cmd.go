// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func emailFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "email",
		Aliases:  []string{"e"},
		Usage:    "Account email address",
		Required: required,
		Sources:  cli.EnvVars("FLUTENOTES_EMAIL"),
	}
}

func passwordFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "Account password",
		Sources: cli.EnvVars("FLUTENOTES_PASSWORD"),
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// setupCommand creates the config file and prepares the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and run database migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account and session",
		Commands: []*cli.Command{
			{
				Name:   "signup",
				Usage:  "Create an account and send a confirmation email",
				Flags:  []cli.Flag{emailFlag(true), passwordFlag()},
				Action: r.AuthSignUp,
			},
			{
				Name:  "login",
				Usage: "Sign in with email and password, or through the OAuth provider",
				Flags: []cli.Flag{
					emailFlag(false),
					passwordFlag(),
					&cli.BoolFlag{
						Name:  "oauth",
						Usage: "Sign in through the configured OAuth provider in a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and remove saved credentials",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in account",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "resend",
				Usage:  "Resend the signup confirmation email",
				Flags:  []cli.Flag{emailFlag(true)},
				Action: r.AuthResend,
			},
			{
				Name:  "confirm",
				Usage: "Confirm an email address with the code from the confirmation link",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "code"},
				},
				Action: r.AuthConfirm,
			},
		},
	}
}

// songsCommand handles library and editor operations
func songsCommand(r *Runner) *cli.Command {
	lineFlag := func() cli.Flag {
		return &cli.StringSliceFlag{
			Name:    "line",
			Aliases: []string{"l"},
			Usage:   `Song line as "lyrics|flute notes"; repeat for each line`,
		}
	}

	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"song", "s"},
		Usage:   "Manage your flute songs",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your songs, most recently modified first",
				Flags:  jsonFlags(),
				Action: r.SongsList,
			},
			{
				Name:  "show",
				Usage: "Print a song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, markdown, json, csv)",
						Value:   "text",
					},
				},
				Action: r.SongsShow,
			},
			{
				Name:  "new",
				Usage: "Create a song",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Song title",
						Required: true,
					},
					lineFlag(),
				},
				Action: r.SongsNew,
			},
			{
				Name:  "edit",
				Usage: "Edit a song's title or replace its lines",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "New song title",
					},
					lineFlag(),
					&cli.StringSliceFlag{
						Name:  "append",
						Usage: `Line to append as "lyrics|flute notes"`,
					},
				},
				Action: r.SongsEdit,
			},
			{
				Name:  "delete",
				Usage: "Delete a song permanently",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.SongsDelete,
			},
			{
				Name:      "export",
				Usage:     "Export one song, several songs, or the whole library",
				ArgsUsage: "[id...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, markdown, text, csv)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file for a single song, or directory for several",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every song in the library",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers (0 uses config)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Songs exported per second (0 uses config)",
					},
				},
				Action: r.SongsExport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive song editing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive library and editor",
		Action:  r.TUI,
	}
}

// serveCommand hosts the auth landing pages.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the email confirmation and check-email pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
			&cli.BoolFlag{
				Name:  "secure-cookies",
				Usage: "Mark cookies Secure (serve behind TLS)",
			},
		},
		Action: r.Serve,
	}
}
