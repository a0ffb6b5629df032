package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/storage"
)

var (
	refineToolName    = "refine_screen"
	refineDescription = "Edit a previously generated screen following an instruction. The refined screen is stored under a new ID."
)

// RefineInput represents the input arguments for the refine_screen tool.
type RefineInput struct {
	ScreenID    string `json:"screen_id" jsonschema:"ID of the screen to refine"`
	Instruction string `json:"instruction" jsonschema:"what to change"`
	Platform    string `json:"platform,omitempty" jsonschema:"web or mobile (default: web)"`
}

// RefineOutput represents the output of the refine_screen tool.
type RefineOutput struct {
	Screen *generate.Screen `json:"screen,omitempty"`
}

func (s *Server) handleRefine(ctx context.Context, _ *mcp.CallToolRequest, input RefineInput) (*mcp.CallToolResult, RefineOutput, error) {
	log := s.config.Logger

	current, err := s.config.Driver.Get(ctx, input.ScreenID)
	if err != nil {
		if storage.IsNotFound(err) {
			return toolError(fmt.Sprintf("Screen %q not found", input.ScreenID)), RefineOutput{}, nil
		}
		log.Error("failed to load screen", "screen_id", input.ScreenID, "error", err)
		return toolError(fmt.Sprintf("Failed to load screen: %v", err)), RefineOutput{}, nil
	}

	refined, err := s.config.Service.Refine(ctx, generate.RefineRequest{
		Screen:      current,
		Instruction: input.Instruction,
		Platform:    input.Platform,
	})
	if err != nil {
		log.Error("MCP refine failed", "screen_id", input.ScreenID, "error", err)
		return toolError(fmt.Sprintf("Refine failed: %v", err)), RefineOutput{}, nil
	}

	if err := s.config.Driver.Put(ctx, refined); err != nil {
		log.Error("failed to store refined screen", "screen_id", refined.ID, "error", err)
		return toolError(fmt.Sprintf("Failed to store refined screen: %v", err)), RefineOutput{}, nil
	}

	out := RefineOutput{Screen: refined}
	return toolResult(out), out, nil
}
