package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"archpm/internal/history"
	"archpm/pkg/bridge"
)

const (
	defaultHistoryLimit = 50
	maxInfoNames        = 100
)

// apiError carries a user-facing message; the cause is only logged.
type apiError struct {
	status  int
	message string
	cause   error
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *apiError) Unwrap() error {
	return e.cause
}

// failure maps a bridge error to an apiError. message is used for
// unexpected failures.
func failure(err error, message string) error {
	switch {
	case errors.Is(err, bridge.ErrEmptyName), errors.Is(err, bridge.ErrInvalidName):
		return &apiError{status: fiber.StatusBadRequest, message: err.Error(), cause: err}
	case errors.Is(err, bridge.ErrBusy):
		return &apiError{status: fiber.StatusConflict, message: err.Error(), cause: err}
	case errors.Is(err, bridge.ErrNoInstalled):
		return &apiError{status: fiber.StatusNotFound, message: "No installed packages found", cause: err}
	}
	return &apiError{status: fiber.StatusInternalServerError, message: message, cause: err}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, message := fiber.StatusInternalServerError, "Internal server error"

	var ae *apiError
	var fe *fiber.Error
	switch {
	case errors.As(err, &ae):
		status, message = ae.status, ae.message
	case errors.As(err, &fe):
		status, message = fe.Code, fe.Message
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func (s *Server) search(c *fiber.Ctx) error {
	return c.JSON(s.backend.SearchPackage(c.Query("q")))
}

func (s *Server) installed(c *fiber.Ctx) error {
	pkgs, err := s.backend.GetInstalledPackages()
	if err != nil {
		return failure(err, "Failed to fetch installed packages. Please try again.")
	}
	return c.JSON(pkgs)
}

func (s *Server) checkInstalled(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := bridge.ValidateName(name); err != nil {
		return failure(err, "")
	}
	return c.JSON(fiber.Map{"name": name, "installed": s.backend.CheckPackageInstalled(name)})
}

func (s *Server) searchLocal(c *fiber.Ctx) error {
	name := c.Params("name")
	found, err := s.backend.SearchLocalPackage(name)
	if err != nil {
		return failure(err, fmt.Sprintf("Failed to look up %s.", name))
	}
	return c.JSON(fiber.Map{"name": name, "found": found})
}

func (s *Server) info(c *fiber.Ctx) error {
	var names []string
	if err := c.BodyParser(&names); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "body must be a JSON array of package names")
	}
	if len(names) > maxInfoNames {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("at most %d names per request", maxInfoNames))
	}

	pkgs, err := s.backend.GetMultiplePackageInfo(names)
	if err != nil {
		return failure(err, "Failed to fetch package information.")
	}
	return c.JSON(pkgs)
}

func (s *Server) install(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.backend.Install(name); err != nil {
		return failure(err, fmt.Sprintf("Failed to install %s.", name))
	}
	return c.JSON(fiber.Map{"status": "ok", "name": name})
}

func (s *Server) uninstall(c *fiber.Ctx) error {
	name := c.Params("name")

	remove := s.backend.Uninstall
	if c.QueryBool("recursive") {
		remove = s.backend.UninstallPackage
	}
	if err := remove(name); err != nil {
		return failure(err, fmt.Sprintf("Failed to uninstall %s.", name))
	}
	return c.JSON(fiber.Map{"status": "ok", "name": name})
}

func (s *Server) updates(c *fiber.Ctx) error {
	updates, err := s.backend.GetAvailableUpdates()
	if err != nil {
		return failure(err, "Failed to check for updates. Please try again.")
	}

	var total int64
	for _, u := range updates {
		total += u.DownloadSize
	}
	return c.JSON(fiber.Map{
		"updates":       updates,
		"downloadSize":  total,
		"downloadHuman": s.backend.HumanReadableSize(total),
	})
}

func (s *Server) updateAll(c *fiber.Ctx) error {
	if err := s.backend.UpdateAllPkg(); err != nil {
		return failure(err, "Failed to update packages.")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) updateOne(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.backend.UpdateSinglePkg(name); err != nil {
		return failure(err, fmt.Sprintf("Failed to update %s.", name))
	}
	return c.JSON(fiber.Map{"status": "ok", "name": name})
}

func (s *Server) size(c *fiber.Ctx) error {
	n, err := strconv.ParseInt(c.Params("bytes"), 10, 64)
	if err != nil || n < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "bytes must be a non-negative integer")
	}
	return c.JSON(fiber.Map{"bytes": n, "human": s.backend.HumanReadableSize(n)})
}

func (s *Server) pending(c *fiber.Ctx) error {
	return c.JSON(s.backend.Pending())
}

func (s *Server) listHistory(c *fiber.Ctx) error {
	if s.history == nil {
		return c.JSON([]history.Entry{})
	}

	limit := c.QueryInt("limit", defaultHistoryLimit)
	var (
		entries []history.Entry
		err     error
	)
	if pkg := strings.TrimSpace(c.Query("package")); pkg != "" {
		entries, err = s.history.ForPackage(pkg, limit)
	} else {
		entries, err = s.history.List(limit)
	}
	if err != nil {
		return failure(err, "Failed to read history.")
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return c.JSON(entries)
}
