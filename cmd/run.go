package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/bmc/internal/app"
	"github.com/abhisek/bmc/internal/browser"
	"github.com/abhisek/bmc/internal/catalog"
	"github.com/abhisek/bmc/internal/config"
	"github.com/abhisek/bmc/internal/logging"
	"github.com/abhisek/bmc/internal/media"
	"github.com/abhisek/bmc/internal/offline"
	"github.com/abhisek/bmc/internal/progress"
	"github.com/abhisek/bmc/internal/store"
	"github.com/abhisek/bmc/internal/tracker"
)

// env bundles the dependencies shared by the commands.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	store  *store.Store
	lock   *store.WriterLock
	worker *offline.Worker
	loader *catalog.Loader
	opener *browser.Opener
	ctrl   *tracker.Controller
}

type envOptions struct {
	// writer takes the exclusive database lock.
	writer bool
	// tui sends logs to a file so they do not corrupt the screen.
	tui bool
}

func newEnv(cmd *cobra.Command, opts envOptions) (*env, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logFile, _ := cmd.Flags().GetString("log-file")
	if logFile == "" {
		logFile = cfg.Log.File
	}
	if logFile == "" && opts.tui {
		if p, err := logging.DefaultLogPath(); err == nil {
			logFile = p
		}
	}
	logger, err := logging.New(logging.Options{
		Development: cfg.Log.Development,
		Level:       cfg.Log.Level,
		File:        logFile,
		Quiet:       opts.tui,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	dbPath, err := resolveDBPath(cmd, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}

	e := &env{cfg: cfg, logger: logger}
	if opts.writer {
		lock, err := store.AcquireWriter(dbPath)
		if err != nil {
			return nil, err
		}
		e.lock = lock
	}

	st, err := store.Open(dbPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.store = st

	if cfg.Cache.Enabled {
		w, err := offline.NewWorker(offline.Options{
			Manifest: cfg.Manifest(),
			BaseURL:  cfg.AssetBaseURL,
			Storage:  st.CacheRepo(),
			Logger:   logger,
		})
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("init offline cache: %w", err)
		}
		e.worker = w
	}

	// The catalog always comes from the network.
	e.loader = catalog.NewLoader(cfg.CatalogURL, &http.Client{Timeout: 30 * time.Second}, logger)
	e.opener = browser.New()
	e.ctrl = tracker.NewController(tracker.Options{
		Store:   progress.NewStore(st.LocalStorage(), logger),
		Journal: st.JournalRepo(),
		Opener:  e.opener,
		ExamURL: cfg.ExamURL,
		Logger:  logger,
	})

	logger.Debug("environment ready",
		zap.String("db", st.Path()),
		zap.String("catalog", e.loader.Source()),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("writer", opts.writer),
	)
	return e, nil
}

// mediaClient routes media through the offline cache when it is enabled.
func (e *env) mediaClient() *media.Client {
	if e.worker != nil {
		return media.New(e.worker.Client(), e.logger)
	}
	return media.New(nil, e.logger)
}

// start loads the catalog and restores the session from link.
func (e *env) start(ctx context.Context, link string) (*catalog.Catalog, error) {
	cat, err := e.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.ctrl.Start(ctx, cat, link); err != nil {
		e.logger.Warn("start session", zap.Error(err))
	}
	return cat, nil
}

// Close releases the store and the writer lock.
func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("close store", zap.Error(err))
		}
	}
	if err := e.lock.Release(); err != nil {
		e.logger.Warn("release lock", zap.Error(err))
	}
	_ = e.logger.Sync()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	if !isTerminal(os.Stdout) {
		return errors.New("bmc needs an interactive terminal; use `bmc stats` for a plain report")
	}

	e, err := newEnv(cmd, envOptions{writer: true, tui: true})
	if err != nil {
		return err
	}
	defer e.Close()

	link, _ := cmd.Flags().GetString("link")
	return app.Run(app.Options{
		Loader:      e.loader,
		Controller:  e.ctrl,
		Link:        link,
		Worker:      e.worker,
		Media:       e.mediaClient(),
		Opener:      e.opener,
		Journal:     e.store.JournalRepo(),
		BaseURL:     e.cfg.AssetBaseURL,
		DownloadDir: e.cfg.DownloadDir,
		Logger:      e.logger,
	})
}
