package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/marcus/courts/internal/config"
	"github.com/marcus/courts/internal/courtclient"
	"github.com/marcus/courts/internal/db"
	"github.com/marcus/courts/internal/geo"
	"github.com/marcus/courts/internal/images"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/output"
	"github.com/marcus/courts/internal/sync"
	"github.com/spf13/cobra"
)

// app bundles the collaborators a command needs. Each command opens its own
// and closes it on return.
type app struct {
	cfg      *config.Config
	db       *db.DB
	client   *courtclient.Client
	geocoder geo.Geocoder
	locator  geo.Locator
	staging  images.Staging
	orch     *sync.Orchestrator
	log      *slog.Logger
}

// stagedPictureMaxAge bounds how long copied pictures are kept around
const stagedPictureMaxAge = 24 * time.Hour

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cmd, cfg)
	return cfg, nil
}

// logSink receives log output. The browser points it at a file so log lines
// do not land on the alternate screen.
var logSink io.Writer = os.Stderr

// setupLogging installs a text handler on logSink. --log-level wins over the
// config and environment.
func setupLogging(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel()
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		level = config.ParseLevel(v, level)
	}
	logger := slog.New(slog.NewTextHandler(logSink, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func serverURL(cmd *cobra.Command, cfg *config.Config) string {
	if v, _ := cmd.Flags().GetString("url"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return cfg.ServerURL()
}

func newGeocoder(cfg *config.Config) geo.Geocoder {
	u := cfg.GeocoderURL()
	if u == "" {
		return geo.NoopGeocoder{}
	}
	g := geo.NewNominatim(u, cfg.Timeout())
	g.Language = cfg.Geocoder.Language
	return g
}

// newLocator returns the configured fixed position. A nil *StaticLocator has
// no fix, which callers see as geo.ErrNoPosition.
func newLocator(cfg *config.Config) geo.Locator {
	coord, ok := cfg.FixedPosition()
	if !ok {
		return (*geo.StaticLocator)(nil)
	}
	return &geo.StaticLocator{Coordinate: coord}
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	database, err := db.Open(dataDir)
	if err != nil {
		return nil, err
	}

	base := serverURL(cmd, cfg)
	if err := database.SetServerURL(base); err != nil {
		database.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		db:       database,
		client:   courtclient.New(base, cfg.Timeout()),
		geocoder: newGeocoder(cfg),
		locator:  newLocator(cfg),
		staging:  images.Staging{Dir: dataDir},
		log:      logger,
	}
	if n, err := a.staging.Cleanup(time.Now(), stagedPictureMaxAge); err != nil {
		logger.Debug("clean staged pictures", "err", err)
	} else if n > 0 {
		logger.Debug("removed staged pictures", "count", n)
	}
	a.orch = sync.New(sync.Options{
		Repository: a.client,
		Geocoder:   a.geocoder,
		Images:     images.FileResolver{MaxSize: images.MaxImageSize},
		Store:      database,
		Logger:     logger,
	})
	a.locate(cmd.Context())
	logger.Debug("app ready", "server", base, "data_dir", dataDir)
	return a, nil
}

// locate feeds one position sample into the orchestrator when a fix is
// available
func (a *app) locate(ctx context.Context) {
	pos, err := a.locator.Locate(ctx)
	if err != nil {
		a.log.Debug("no position", "err", err)
		return
	}
	a.orch.Drive(ctx, sync.UpdatePosition{Position: pos})
}

// stageImage copies a picture into the data dir so the upload reads a file
// nothing else is writing. "-" reads the picture from stdin.
func (a *app) stageImage(ref string) (string, error) {
	if ref != "-" {
		return a.staging.Stage(ref, time.Now())
	}
	path, err := a.staging.CapturePath()
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, io.LimitReader(os.Stdin, images.MaxImageSize+1)); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: read stdin: %v", images.ErrImageRead, err)
	}
	return path, f.Close()
}

func (a *app) Close() error {
	return a.db.Close()
}

// loadCourts refreshes the court set from the service. When the service is
// unreachable the cached set is used instead and cached is true.
func (a *app) loadCourts(ctx context.Context) (out sync.Outcome, cached bool) {
	out = a.orch.Drive(ctx, sync.LoadCourts{})
	if out.OK() || !courtclient.IsTransport(out.Err) {
		return out, false
	}
	a.log.Info("service unreachable, using cached courts", "err", out.Err)
	restored := a.orch.Drive(ctx, sync.RestoreCache{})
	if restored.Status == sync.StatusFailed {
		return out, false
	}
	restored.Err = out.Err
	return restored, true
}

// cacheNote describes the age of the cached court set
func (a *app) cacheNote() string {
	at, ok, err := a.db.LastSync()
	if err != nil || !ok {
		return "offline, showing cached courts"
	}
	return fmt.Sprintf("offline, showing courts cached %s", output.FormatTimeAgo(at))
}

// currentPosition is the fix the app was opened with, if any
func (a *app) currentPosition() (models.Position, bool) {
	v := a.orch.View()
	if v.Position == nil {
		return models.Position{}, false
	}
	return *v.Position, true
}
