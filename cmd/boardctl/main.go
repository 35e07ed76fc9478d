// Command boardctl is a terminal client for a board backend: projects,
// epics, issues, and sprints over REST, with locally persisted comment
// threads and an interactive issue board.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lodenross/boardctl/internal/cache"
	"github.com/lodenross/boardctl/internal/comments"
	"github.com/lodenross/boardctl/internal/config"
	"github.com/lodenross/boardctl/internal/session"
)

var flagVerbose bool

// App bundles the shared collaborators every command needs: config, session,
// the process-wide entity cache, and the comment side-store.
type App struct {
	cfg   *config.Config
	sess  *session.Session
	cache *cache.Cache
	log   *slog.Logger

	store   *comments.SQLiteStore
	threads *comments.Threads
}

func newApp() (*App, error) {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, err
	}

	role := session.Role(cfg.User.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid user role in config: %s", cfg.User.Role)
	}

	return &App{
		cfg:   cfg,
		sess:  session.New(cfg.User.ID, role, cfg.Token),
		cache: cache.New(),
		log:   logger,
	}, nil
}

// openThreads lazily opens the comment side-store. Only comment commands and
// teardown touch it.
func (a *App) openThreads() (*comments.Threads, error) {
	if a.threads != nil {
		return a.threads, nil
	}
	path := a.cfg.CommentsPath
	if path == "" {
		p, err := comments.DefaultStorePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	store, err := comments.OpenStore(path)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.threads = comments.NewThreads(store, a.log)
	return a.threads, nil
}

func (a *App) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "boardctl",
		Short:         "Terminal client for the board backend",
		Long:          `boardctl lists, creates, edits, and removes projects, epics, issues, and sprints against a board backend, keeps comment threads locally, and ships an interactive issue board.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(epicCmd())
	rootCmd.AddCommand(issueCmd())
	rootCmd.AddCommand(sprintCmd())
	rootCmd.AddCommand(commentCmd())
	rootCmd.AddCommand(boardCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
