package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/dori/zenith/internal/ai"
	"github.com/dori/zenith/internal/config"
	"github.com/dori/zenith/internal/db"
	"github.com/dori/zenith/internal/device"
	"github.com/dori/zenith/internal/logger"
	"github.com/dori/zenith/internal/media"
	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/music"
	"github.com/dori/zenith/internal/notify"
	"github.com/dori/zenith/internal/server"
	"github.com/dori/zenith/internal/snapshot"
	"github.com/dori/zenith/internal/store"
	"github.com/dori/zenith/internal/timer"
)

// Options tune how much of the application is opened
type Options struct {
	// Ephemeral keeps every collection in memory and skips the database
	Ephemeral bool
	// ReadOnly skips the single-instance lock
	ReadOnly bool
}

// App holds the application state and dependencies
type App struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *db.DB
	Snapshots snapshot.Store
	Store     *store.Store
	Timer     *timer.Runner
	Assistant *ai.Assistant
	Spotify   *music.Spotify
	Embed     *media.Embed
	Device    *device.Controller
	Notifier  *notify.Notifier
	DataDir   string

	ephemeral  bool
	settingsMu sync.Mutex
	settings   config.Settings

	lockFile *flock.Flock
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a new application instance
func New(cfg *config.Config, log *logger.Logger, opts Options) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}

	if err := os.MkdirAll(cfg.App.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    log,
		DataDir:   cfg.App.DataDir,
		ephemeral: opts.Ephemeral,
	}

	if !opts.ReadOnly && !opts.Ephemeral {
		if err := app.acquireLock(); err != nil {
			return nil, err
		}
	}

	if err := app.openStorage(opts.Ephemeral); err != nil {
		app.Close()
		return nil, err
	}

	st, err := store.New(app.Snapshots, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}
	app.Store = st

	app.settings = cfg.DefaultSettings()
	if !opts.Ephemeral {
		settings, err := config.LoadSettings(app.DataDir, app.settings)
		if err != nil {
			log.Warnw("Ignoring unreadable settings", "error", err.Error())
		}
		app.settings = settings
	}

	app.Timer = timer.NewRunner(app.restoreTimer(), timer.Config{TickInterval: cfg.Timer.TickInterval})
	app.Assistant = ai.NewAssistant(ai.NewGemini(cfg.AI, log), log)
	app.Spotify = music.NewSpotify(cfg.Spotify, app.Snapshots, log)
	app.Embed = media.NewEmbed(app.settings.Embed, log)
	app.Notifier = notify.NewNotifier(cfg.Notify.Enabled, log)
	if cfg.Device.Enabled {
		app.Device = device.NewController(device.SerialDialer(cfg.Device), app.Timer, log)
	}

	return app, nil
}

func (a *App) openStorage(ephemeral bool) error {
	if ephemeral {
		a.Snapshots = snapshot.NewMemory()
		return nil
	}

	database, err := db.Open(a.Config.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database

	snaps, err := snapshot.Open(a.Config, database)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", a.Config.Storage.Backend, err)
	}
	a.Snapshots = snaps
	return nil
}

// restoreTimer resumes the last saved countdown, paused
func (a *App) restoreTimer() *timer.Machine {
	durations := a.settings.Durations
	raw, err := a.Snapshots.Load(snapshot.KeyTimerState)
	if err != nil || raw == nil {
		return timer.NewMachine(durations)
	}
	var state timer.State
	if err := json.Unmarshal(raw, &state); err != nil {
		a.Logger.Warnw("Discarding unreadable timer state", "error", err.Error())
		return timer.NewMachine(durations)
	}
	return timer.Restore(durations, state)
}

// Settings returns the current user preferences
func (a *App) Settings() config.Settings {
	a.settingsMu.Lock()
	defer a.settingsMu.Unlock()
	return a.settings
}

// SaveDurations applies and persists new timer lengths
func (a *App) SaveDurations(d timer.Durations) error {
	a.settingsMu.Lock()
	a.settings.Durations = d
	a.settingsMu.Unlock()
	return a.saveSettings()
}

// SaveEmbed persists the current player embed so it survives restarts
func (a *App) SaveEmbed() error {
	a.settingsMu.Lock()
	a.settings.Embed = a.Embed.Current()
	a.settingsMu.Unlock()
	return a.saveSettings()
}

func (a *App) saveSettings() error {
	if a.ephemeral {
		return nil
	}
	err := config.SaveSettings(a.DataDir, a.Settings())
	if err != nil {
		a.Logger.Errorw("Failed to save settings", "error", err.Error())
	}
	return err
}

// StartServices launches the background subscribers of interactive runs:
// desktop notifications, session history and timer state persistence.
func (a *App) StartServices(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	notifications := a.Timer.Subscribe(16)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Notifier.Forward(ctx, notifications)
	}()

	events := a.Timer.Subscribe(64)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.recordSessions(ctx, events)
	}()

	if a.Device != nil {
		go func() {
			if err := a.Device.Connect(ctx); err != nil {
				a.Logger.Warnw("Device not connected", "port", a.Config.Device.Port, "error", err.Error())
			}
		}()
	}
}

// recordSessions logs finished and skipped sessions and saves the timer
// state after every change except plain ticks
func (a *App) recordSessions(ctx context.Context, events <-chan timer.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == timer.EventTick {
				continue
			}
			a.saveTimerState(ev.Snapshot.State)

			if ev.Transition == nil || a.DB == nil {
				continue
			}
			t := ev.Transition
			entry := &model.SessionLog{
				Mode:           string(t.From),
				PlannedSeconds: t.PlannedSeconds,
				ElapsedSeconds: t.ElapsedSeconds,
				Skipped:        t.Skipped,
				Cycle:          t.Cycles,
				EndedAt:        ev.At,
			}
			if err := a.DB.RecordSession(entry); err != nil {
				a.Logger.Errorw("Failed to record session", "mode", entry.Mode, "error", err.Error())
			}
		}
	}
}

func (a *App) saveTimerState(state timer.State) {
	state.Active = false
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	err = a.Snapshots.Save(snapshot.KeyTimerState, raw)
	a.Logger.LogStoreWrite(snapshot.KeyTimerState, len(raw), err)
}

// ServerServices exposes the components the HTTP API needs
func (a *App) ServerServices() server.Services {
	services := server.Services{
		Store:         a.Store,
		Timer:         a.Timer,
		Assistant:     a.Assistant,
		Music:         a.Spotify,
		Embed:         a.Embed,
		Device:        a.Device,
		SaveDurations: a.SaveDurations,
	}
	if a.DB != nil {
		services.History = a.DB
	}
	return services
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, config.AppName+".lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of %s is already running", config.AppName)
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.Device != nil {
		a.Device.Disconnect()
	}
	if a.Timer != nil {
		state := a.Timer.Snapshot().State
		a.Timer.Close()
		if a.cancel != nil {
			a.cancel()
			a.wg.Wait()
			a.saveTimerState(state)
		}
	}
	if a.Store != nil {
		a.Store.Close()
	}

	if closer, ok := a.Snapshots.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close snapshot store: %w", err))
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
