// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func genreArgument() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{
			Name:      "genre",
			UsageText: "classic, pop, rock or all",
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, table, csv, markdown, json",
		Value:   "text",
	}
}

// setupCommand writes the config file and prepares the local store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the local song cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent SQLite migration",
			},
		},
		Action: r.Setup,
	}
}

// syncCommand refreshes one genre or all of them.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Refresh cached songs from the catalog, falling back to the cache when offline",
		Arguments: genreArgument(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Skip the network and serve the cache",
			},
			&cli.BoolFlag{
				Name:  "silent",
				Usage: "Do not report fetch failures when the cache is served",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Genres synced concurrently",
				Value: 3,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write each genre's songs into this directory instead of stdout",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Print only the summary",
			},
			formatFlag(),
		},
		Action: r.Sync,
	}
}

// listCommand prints cached songs without touching the network.
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List cached songs",
		Arguments: genreArgument(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "match",
				Aliases: []string{"m"},
				Usage:   "Fuzzy filter on artist and title",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of songs to print (0 for all)",
			},
			formatFlag(),
		},
		Action: r.List,
	}
}

// clearCommand drops cached partitions.
func clearCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "clear",
		Usage:     "Remove cached songs",
		Arguments: genreArgument(),
		Action:    r.Clear,
	}
}

// openCommand opens a cached song's store page.
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Open a cached song in the browser",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "track-id",
			},
		},
		Action: r.Open,
	}
}

// statusCommand reports cache sizes, recent syncs and connectivity.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show cache contents, recent sync runs and connectivity",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "runs",
				Usage: "Recent runs shown per genre",
				Value: 3,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

// serveCommand starts the local HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve cached songs over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: "localhost:3000",
			},
			&cli.BoolFlag{
				Name:  "read-only",
				Usage: "Disable POST /sync",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Genres synced concurrently per request",
				Value: 3,
			},
		},
		Action: r.Serve,
	}
}

// browseCommand returns the top-level TUI command for interactive browsing.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch interactive TUI to sync and browse songs",
		Action:  r.Browse,
	}
}
