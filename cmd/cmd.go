// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the config file and the session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the local database",
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: r.Setup,
	}
}

// connectCommand stores credentials for a service.
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Store credentials for a service (spotify or apple)",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "service",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "access-token",
				Usage: "Pre-validated Spotify access token",
			},
			&cli.StringFlag{
				Name:  "user-token",
				Usage: "Apple Music user token from MusicKit",
			},
			&cli.StringFlag{
				Name:  "storefront",
				Usage: "Apple Music storefront (default from config)",
			},
		},
		Action: r.Connect,
	}
}

// playlistsCommand lists playlists on both services.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List playlists on both connected services",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "from",
				Usage: "Source service: spotify or apple",
				Value: "spotify",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Playlists,
	}
}

// syncCommand runs playlist syncs.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync a playlist from the source service to the destination",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Source playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Source service: spotify or apple",
				Value: "spotify",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Destination playlist name (defaults to '<source> (from <service>)')",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Destination playlist description",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Sync mode: create or update",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a report file: txt, md, csv, or json",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the sync result as JSON",
			},
		},
		Action: r.Sync,
		Commands: []*cli.Command{
			{
				Name:  "all",
				Usage: "Run every sync job configured under [sync.jobs]",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "from",
						Usage: "Source service: spotify or apple",
						Value: "spotify",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent sync jobs",
						Value: 3,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the bulk result as JSON",
					},
				},
				Action: r.SyncAll,
			},
		},
	}
}

// validateCommand checks sync feasibility without running it.
func validateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check whether a playlist sync is feasible",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Source playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Source service: spotify or apple",
				Value: "spotify",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the validation result as JSON",
			},
		},
		Action: r.Validate,
	}
}

// tuiCommand launches the interactive terminal interface.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse playlists and sync interactively",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "from",
				Usage: "Source service: spotify or apple",
				Value: "spotify",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Sync mode: create or update",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file path (stdout belongs to the TUI)",
				Value: "syncopate_tui.log",
			},
		},
		Action: r.Tui,
	}
}
