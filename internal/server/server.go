// Package server exposes the bridge over a JSON HTTP API so a web or
// desktop front end can drive it.
package server

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"archpm/internal/history"
	"archpm/pkg/bridge"
	"archpm/pkg/manager"
)

// EnvListen overrides the configured listen address.
const EnvListen = "ARCHPM_LISTEN"

const shutdownTimeout = 5 * time.Second

// Backend is the subset of the bridge served over HTTP.
type Backend interface {
	CheckPackageInstalled(name string) bool
	SearchLocalPackage(name string) (bool, error)
	SearchPackage(query string) []manager.PackageInfo
	GetInstalledPackages() ([]manager.PackageInfo, error)
	GetMultiplePackageInfo(names []string) ([]manager.PackageInfo, error)
	GetAvailableUpdates() ([]manager.UpdateInfo, error)
	Install(name string) error
	Uninstall(name string) error
	UninstallPackage(name string) error
	UpdateSinglePkg(name string) error
	UpdateAllPkg() error
	HumanReadableSize(size int64) string
	Pending() []bridge.PendingOp
}

// HistorySource lists recorded transactions, newest first.
type HistorySource interface {
	List(limit int) ([]history.Entry, error)
	ForPackage(name string, limit int) ([]history.Entry, error)
}

// Server serves the bridge operations.
type Server struct {
	backend Backend
	history HistorySource
	logger  *log.Logger
	app     *fiber.App
}

// New creates a server. hist and logger may be nil.
func New(backend Backend, hist HistorySource, l *log.Logger) *Server {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}

	s := &Server{
		backend: backend,
		history: hist,
		logger:  l,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "archpm",
		ServerHeader:          "archpm",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Output: l.Writer(),
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	s.registerRoutes()
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return err
		}
		return <-errCh
	}
}

// ListenAddr returns the listen address: ARCHPM_LISTEN from the environment
// or a .env file in the working directory, else fallback.
func ListenAddr(fallback string) string {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env load: %v", err)
	}
	if v := os.Getenv(EnvListen); v != "" {
		return v
	}
	return fallback
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	pkgs := api.Group("/packages")
	pkgs.Get("/search", s.search)
	pkgs.Get("/installed", s.installed)
	pkgs.Get("/installed/:name", s.checkInstalled)
	pkgs.Get("/local/:name", s.searchLocal)
	pkgs.Post("/info", s.info)
	pkgs.Post("/:name/install", s.install)
	pkgs.Post("/:name/uninstall", s.uninstall)

	api.Get("/updates", s.updates)
	api.Post("/updates", s.updateAll)
	api.Post("/updates/:name", s.updateOne)

	api.Get("/size/:bytes", s.size)
	api.Get("/pending", s.pending)
	api.Get("/history", s.listHistory)

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "time": time.Now()})
	})
}
