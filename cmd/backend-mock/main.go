// Command backend-mock serves the remote catalog API from a fixture file,
// for local development and smoke tests.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

var (
	app         = kingpin.New("backend-mock", "Fixture-backed stand-in for the cinelog remote API.")
	port        = app.Flag("port", "Port to listen on.").Default("9099").Envar("MOCK_PORT").String()
	fixturePath = app.Flag("fixture", "Path to the YAML or JSON fixture.").Default("mock-backend.yaml").Envar("MOCK_FIXTURE").String()
	watch       = app.Flag("watch", "Reload the fixture when the file changes.").Default("true").Bool()
	logRequests = app.Flag("log", "Enable request logging.").Bool()
	logLevel    = app.Flag("log-level", "Log level.").Default("info").Enum("trace", "debug", "info", "warn", "error")
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "backend-mock",
		Level: hclog.LevelFromString(*logLevel),
	})

	fx, err := loadFixture(*fixturePath)
	if err != nil {
		logger.Error("load fixture", "error", err)
		os.Exit(1)
	}
	api := newMockAPI(seed(fx), logger)
	logger.Info("fixture loaded", "path", *fixturePath, "movies", len(fx.Movies), "users", len(fx.Users), "reviews", len(fx.Reviews))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch {
		go func() {
			if err := watchFixture(ctx, *fixturePath, api, logger.Named("watch")); err != nil {
				logger.Warn("fixture watch stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           api.routes(*logRequests),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("mock backend listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// watchFixture reseeds the API whenever the fixture file is written. The
// directory is watched so editors that replace the file are picked up too.
func watchFixture(ctx context.Context, path string, api *mockAPI, logger hclog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			fx, err := loadFixture(abs)
			if err != nil {
				logger.Warn("fixture reload failed, keeping previous data", "error", err)
				continue
			}
			api.replace(seed(fx))
			logger.Info("fixture reloaded", "movies", len(fx.Movies), "users", len(fx.Users))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
