package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/mkorolev/studyplan/internal/client/backend"
	"github.com/mkorolev/studyplan/internal/client/cache"
	"github.com/mkorolev/studyplan/internal/client/config"
	"github.com/mkorolev/studyplan/internal/client/connectivity"
	"github.com/mkorolev/studyplan/internal/client/models"
	"github.com/mkorolev/studyplan/internal/client/offline"
	"github.com/mkorolev/studyplan/internal/client/services"
	"github.com/mkorolev/studyplan/internal/client/storage"
	"github.com/mkorolev/studyplan/internal/client/tempid"
	"github.com/mkorolev/studyplan/internal/cryptox"
	"github.com/mkorolev/studyplan/internal/logging"

	_ "modernc.org/sqlite"
)

// viewKey identifies the single task-list view this client caches.
const viewKey = "tasks:default"

// snapshotSalt keys the snapshot-encryption derivation. Changing it makes
// existing snapshots unreadable, which the views layer treats as absent.
var snapshotSalt = []byte("studyplan/snapshots/v1")

// App glues the configuration, storage, backend client and task service
// together behind the REPL.
type App struct {
	config  *config.Config
	tasks   services.TaskService
	queue   *offline.Queue
	monitor *connectivity.Monitor
	repos   *storage.Repositories
	reader  *bufio.Reader
	log     logging.Logger
}

// NewApp builds the full client wiring. An empty passphrase leaves view
// snapshots unencrypted; a non-empty one derives the at-rest key from it.
func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	passphrase, err := GetPassword(os.Stdout)
	if err != nil {
		return nil, err
	}
	var snapshotKey []byte
	if len(passphrase) > 0 {
		snapshotKey = cryptox.DeriveKey(passphrase, snapshotSalt)
	}

	repos, err := storage.InitDatabase(ctx, cfg.DatabasePath, snapshotKey)
	if err != nil {
		log.Error(ctx, "failed to initialize database", "error", err)
		return nil, err
	}

	apiClient := backend.NewHTTPClient(cfg.BackendBaseURL)

	resolver := tempid.NewResolver(repos.Mappings)
	if err := resolver.Load(ctx); err != nil {
		return nil, err
	}

	queue := offline.NewQueue(repos.Queue, resolver, apiClient, log)

	store := cache.NewStore(viewKey, repos.Views, log, models.TaskListView{})
	if err := store.Load(ctx); err != nil {
		return nil, err
	}

	monitor := connectivity.NewMonitor(apiClient, log, cfg.OnlineCheckInterval)
	tasks := services.NewTaskService(apiClient, queue, resolver, store, monitor, cfg, log)

	monitor.OnRecover(func(ctx context.Context) {
		if _, err := tasks.Sync(ctx); err != nil {
			log.Warn(ctx, "background sync failed", "error", err)
		}
	})

	return &App{
		config:  cfg,
		tasks:   tasks,
		queue:   queue,
		monitor: monitor,
		repos:   repos,
		reader:  bufio.NewReader(os.Stdin),
		log:     log,
	}, nil
}

// Run starts the connectivity watcher and enters the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.repos.Close()
	a.monitor.Start(ctx)
	a.Root(ctx)
}
