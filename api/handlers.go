package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/llm"
	"github.com/papercomputeco/screens/pkg/storage"
)

// GenerationResponse lists the stored screens of one generation.
type GenerationResponse struct {
	GenerationID string             `json:"generation_id"`
	Count        int                `json:"count"`
	Screens      []*generate.Screen `json:"screens"`
}

// RefineScreenRequest is the body of POST /v1/screens/:id/refine.
type RefineScreenRequest struct {
	Instruction string `json:"instruction"`
	Platform    string `json:"platform,omitempty"`
	Model       string `json:"model,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleGetScreen returns a single stored screen.
func (s *Server) handleGetScreen(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "id parameter required"})
	}

	screen, err := s.driver.Get(c.Context(), id)
	if err != nil {
		return s.storageError(c, err, "screen not found")
	}

	return c.JSON(screen)
}

// handleGetGeneration returns the stored screens of a generation in index order.
func (s *Server) handleGetGeneration(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "id parameter required"})
	}

	screens, err := s.driver.ListGeneration(c.Context(), id)
	if err != nil {
		s.logger.Error("failed to list generation", "generation_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list screens"})
	}
	if len(screens) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "generation not found"})
	}

	return c.JSON(GenerationResponse{
		GenerationID: id,
		Count:        len(screens),
		Screens:      screens,
	})
}

// handleRefineScreen edits a stored screen and stores the result under a
// new ID.
func (s *Server) handleRefineScreen(c *fiber.Ctx) error {
	id := c.Params("id")

	var req RefineScreenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	current, err := s.driver.Get(c.Context(), id)
	if err != nil {
		return s.storageError(c, err, "screen not found")
	}

	refined, err := s.service.Refine(c.Context(), generate.RefineRequest{
		Screen:      current,
		Instruction: req.Instruction,
		Platform:    req.Platform,
		Model:       req.Model,
	})
	if err != nil {
		return s.refineError(c, err)
	}

	if err := s.driver.Put(c.Context(), refined); err != nil {
		s.logger.Error("failed to store refined screen", "screen_id", refined.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to store screen"})
	}

	return c.Status(fiber.StatusCreated).JSON(refined)
}

func (s *Server) storageError(c *fiber.Ctx, err error, notFound string) error {
	if storage.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: notFound})
	}
	s.logger.Error("storage error", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "storage error"})
}

func (s *Server) refineError(c *fiber.Ctx, err error) error {
	switch generate.Classify(err) {
	case generate.FailureInvalid:
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	case generate.FailureExhausted, generate.FailureFatal:
		s.logger.Error("refine failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	// The model replied but the reply held no usable screen.
	s.logger.Error("refine failed", "error", err)
	return c.Status(fiber.StatusUnprocessableEntity).JSON(llm.ErrorResponse{Error: err.Error()})
}
