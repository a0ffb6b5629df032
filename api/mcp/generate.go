package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/screens/pkg/generate"
)

var (
	generateToolName    = "generate_screens"
	generateDescription = "Generate UI screens from a product description. Returns each screen's name, description and HTML+Tailwind code."
)

// GenerateInput represents the input arguments for the generate_screens tool.
type GenerateInput struct {
	Prompt   string `json:"prompt" jsonschema:"what the screens should show"`
	Count    int    `json:"count,omitempty" jsonschema:"number of screens to generate (default: 3)"`
	Platform string `json:"platform,omitempty" jsonschema:"web or mobile (default: web)"`
}

// GenerateOutput represents the output of the generate_screens tool.
type GenerateOutput struct {
	GenerationID string             `json:"generation_id"`
	Outcome      string             `json:"outcome"`
	Failure      string             `json:"failure,omitempty"`
	Error        string             `json:"error,omitempty"`
	Screens      []*generate.Screen `json:"screens"`
}

func (s *Server) handleGenerate(ctx context.Context, _ *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, GenerateOutput, error) {
	log := s.config.Logger
	log.Debug("MCP generate request",
		"count", input.Count,
		"platform", input.Platform,
	)

	res := s.config.Service.Generate(ctx, generate.Request{
		Prompt:   input.Prompt,
		Count:    input.Count,
		Platform: input.Platform,
	}, nil)

	out := GenerateOutput{
		GenerationID: res.GenerationID,
		Outcome:      res.Outcome.String(),
		Screens:      res.Screens,
	}
	if out.Screens == nil {
		out.Screens = []*generate.Screen{}
	}
	if res.Failure != generate.FailureNone {
		out.Failure = res.Failure.String()
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}

	if res.Failure != generate.FailureNone && len(res.Screens) == 0 {
		log.Error("MCP generation failed", "failure", out.Failure, "error", res.Err)
		return toolError(fmt.Sprintf("Generation failed (%s): %v", out.Failure, res.Err)), out, nil
	}

	return toolResult(out), out, nil
}
