package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/repositories"
	"github.com/quirxsama/latte-sub000/internal/services"
	"github.com/quirxsama/latte-sub000/internal/shared"
	"github.com/quirxsama/latte-sub000/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	spotify    services.Authenticator

	db      *sql.DB
	users   *repositories.UserRepository
	friends *repositories.FriendRepository
	runs    *repositories.SyncRunRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Spotify    services.Authenticator // built from Config when nil
	DB         *sql.DB                // opened from Config on first use when nil
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
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		spotify:    opts.Spotify,
	}
	if opts.DB != nil {
		r.bind(opts.DB)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, authCommand, usersCommand, friendsCommand, compareCommand, seedCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig replaces the runner's config with the file at path overlaid with env, when the file exists.
func (r *Runner) loadConfig(path string, envFiles ...string) error {
	if path != "" {
		cfg, err := shared.LoadConfig(path)
		switch {
		case err == nil:
			r.config = cfg
			r.configPath = path
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", path)
		default:
			return err
		}
	}
	return shared.ApplyEnv(r.config, envFiles...)
}

func (r *Runner) bind(db *sql.DB) {
	r.db = db
	r.users = repositories.NewUserRepository(db)
	r.friends = repositories.NewFriendRepository(db)
	r.runs = repositories.NewSyncRunRepository(db)
}

// open connects to the configured database and applies pending migrations. It is a no-op once connected.
func (r *Runner) open() error {
	if r.db != nil {
		return nil
	}

	path := r.config.Database.Path
	r.logger.Debug("opening database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.bind(db)
	return nil
}

// Close releases the database connection.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// spotifyAuth returns the configured authenticator, building it from credentials on first use.
func (r *Runner) spotifyAuth() (services.Authenticator, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}
	if !r.config.HasSpotifyCredentials() {
		return nil, fmt.Errorf("%w: set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET or credentials.spotify in config.toml", shared.ErrMissingCredentials)
	}

	auth, err := services.NewSpotifyAuth(r.config.Credentials.Spotify, r.config.Sync.RateLimit)
	if err != nil {
		return nil, err
	}
	r.spotify = auth
	return auth, nil
}

func (r *Runner) statsEngine() *tasks.StatsEngine {
	return tasks.NewStatsEngine(r.users, r.config.Sync.TimeRanges, r.config.Sync.Limit).WithRecorder(r.runs)
}

// actingUser resolves the --as flag to a stored user.
func (r *Runner) actingUser(ctx context.Context, cmd *cli.Command) (*models.User, error) {
	code := cmd.String("as")
	if code == "" {
		return nil, fmt.Errorf("%w: --as (or LATTE_USER) must name your user code", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r.users.GetByUserID(ctx, code)
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

// watchProgress prints updates until the returned stop function is called.
// stop closes the channel and waits for pending output.
func (r *Runner) watchProgress(print func(tasks.ProgressUpdate)) (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			print(update)
		}
	}()
	return progress, func() {
		close(progress)
		<-done
	}
}
