package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"syncopate/internal/repositories"
	"syncopate/internal/services"
	"syncopate/internal/shared"
	"syncopate/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	spotify  services.Service
	apple    services.Service
	logger   *log.Logger
	output   io.Writer
	db       *sql.DB
	sessions *repositories.SessionRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Spotify services.Service
	Apple   services.Service
	Logger  *log.Logger
	Output  io.Writer
	DB      *sql.DB
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

	r := &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		apple:   opts.Apple,
		logger:  opts.Logger,
		output:  opts.Output,
		db:      opts.DB,
	}
	if opts.DB != nil {
		r.sessions = repositories.NewSessionRepository(opts.DB)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, connectCommand, playlistsCommand, syncCommand, validateCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// direction resolves the sync direction from the --from flag value.
// Spotify is the default source.
func (r *Runner) direction(from string) (source, destination services.Service, err error) {
	switch from {
	case "", "spotify":
		source, destination = r.spotify, r.apple
	case "apple", "applemusic", "apple-music":
		source, destination = r.apple, r.spotify
	default:
		return nil, nil, fmt.Errorf("%w: unknown service %q", shared.ErrValidation, from)
	}

	if source == nil || destination == nil {
		return nil, nil, fmt.Errorf("%w: run 'connect' for both services first", shared.ErrNotConnected)
	}
	return source, destination, nil
}

// engineFor builds a sync engine for the resolved direction.
func (r *Runner) engineFor(from string) (*tasks.SyncEngine, services.Service, services.Service, error) {
	source, destination, err := r.direction(from)
	if err != nil {
		return nil, nil, nil, err
	}
	return tasks.NewSyncEngine(source, destination, r.logger), source, destination, nil
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
