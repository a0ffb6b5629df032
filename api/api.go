package api

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/screens/api/mcp"
	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/storage"
)

// Server is the API server for generating and managing screens.
type Server struct {
	config  Config
	service *generate.Service
	driver  storage.Driver
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server.
// The driver is injected so the persistence worker pool and the server read
// and write the same store.
func NewServer(config Config, service *generate.Service, driver storage.Driver, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		service: service,
		driver:  driver,
		logger:  logger,
		app:     app,
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Service: service,
		Driver:  driver,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/generations", s.handleCreateGeneration)
	app.Get("/v1/generations/:id", s.handleGetGeneration)
	app.Get("/v1/screens/:id", s.handleGetScreen)
	app.Post("/v1/screens/:id/refine", s.handleRefineScreen)
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
