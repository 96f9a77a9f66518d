package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"streampay/internal/api"
	"streampay/internal/config"
	"streampay/internal/ledger"
	"streampay/internal/logging"
)

// Daemon owns the ledger database for one environment and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *ledger.Store
	ledger *ledger.Ledger
	svc    *api.StreamService

	lockPath string
	lock     *flock.Flock
	apiSrv   *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Environment  string
	LedgerDBPath string
	LockFilePath string
	NextStreamID uint64
	Stats        map[string]int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *ledger.Store, l *ledger.Ledger, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || l == nil {
		return nil, errors.New("daemon requires config, store, and ledger")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		ledger:   l,
		svc:      api.NewStreamService(l),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiSrv = srv
	return d, nil
}

// Start acquires the daemon lock and brings up the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another streampay daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.apiSrv != nil {
		if err := d.apiSrv.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("streampay daemon started",
		logging.String("environment", d.cfg.Network.Environment),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the HTTP API and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.apiSrv != nil {
		d.apiSrv.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("streampay daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Streams exposes the stream service shared by the IPC and HTTP layers.
func (d *Daemon) Streams() *api.StreamService {
	return d.svc
}

// LogFilePath reports where the daemon writes its log file.
func (d *Daemon) LogFilePath() string {
	return d.cfg.LogFilePath()
}

// Status returns the current daemon status. Counter reads that fail leave the
// corresponding fields zeroed rather than failing the whole status call.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Environment:  d.cfg.Network.Environment,
		LedgerDBPath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if next, err := d.ledger.NextStreamID(ctx); err == nil {
		status.NextStreamID = next
	} else {
		d.logger.Warn("failed to read next stream id", logging.Error(err))
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.Stats = stats
	} else {
		d.logger.Warn("failed to read ledger stats", logging.Error(err))
	}
	return status
}
