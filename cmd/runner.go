package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/netmon"
	"github.com/desertthunder/tunecache/internal/repositories"
	"github.com/desertthunder/tunecache/internal/services"
	"github.com/desertthunder/tunecache/internal/shared"
	"github.com/desertthunder/tunecache/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.SongService
	monitor    tasks.NetworkMonitor
	logger     *log.Logger
	output     io.Writer
	openURL    func(string) error

	mu    sync.Mutex
	store repositories.SongStore
	open  func(ctx context.Context, c shared.DatabaseConfig) (repositories.SongStore, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.SongService   // Remote catalog (default: iTunes from config)
	Monitor    tasks.NetworkMonitor   // Connectivity (default: TCP probe from config)
	Store      repositories.SongStore // Pre-opened cache; opened from config on first use when nil
	Logger     *log.Logger
	Output     io.Writer
	OpenURL    func(string) error
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
	if opts.Service == nil {
		opts.Service = services.NewITunesService(services.ITunesOptsFromConfig(opts.Config.ITunes))
	}
	if opts.Monitor == nil {
		opts.Monitor = netmon.NewProbeMonitor(netmon.ProbeOptsFromConfig(opts.Config.Network, opts.Logger))
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		monitor:    opts.Monitor,
		logger:     opts.Logger,
		output:     opts.Output,
		openURL:    opts.OpenURL,
		store:      opts.Store,
		open:       repositories.Open,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, syncCommand, listCommand, clearCommand, openCommand, statusCommand, serveCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by commands.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// songStore opens the configured store on first use.
func (r *Runner) songStore(ctx context.Context) (repositories.SongStore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		return r.store, nil
	}

	store, err := r.open(ctx, r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", r.driver(), err)
	}
	r.logger.Debug("store opened", "driver", r.driver(), "path", r.config.Database.Path)
	r.store = store
	return store, nil
}

func (r *Runner) driver() string {
	if r.config.Database.Driver == "" {
		return shared.DriverSQLite
	}
	return r.config.Database.Driver
}

// Close releases the store, if one was opened.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}

// policyFor resolves the configured fetch-failure policy for genre.
func (r *Runner) policyFor(genre models.Genre) (tasks.FailurePolicy, error) {
	return tasks.ParseFailurePolicy(r.config.Sync.PolicyFor(genre.String()))
}

// genresArg parses a genre argument. "all" selects every genre.
func genresArg(cmd *cli.Command) ([]models.Genre, error) {
	arg := cmd.StringArg("genre")
	if arg == "" {
		return nil, fmt.Errorf("%w: genre (classic, pop, rock or all)", shared.ErrMissingArgument)
	}
	if arg == "all" {
		return models.Genres(), nil
	}
	genre, err := models.ParseGenre(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	return []models.Genre{genre}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
