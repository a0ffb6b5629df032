package generate

import (
	"fmt"
	"strings"
)

// Platforms understood by the prompt builder.
const (
	PlatformWeb    = "web"
	PlatformMobile = "mobile"
)

const systemPrompt = `You are a UI designer who writes self-contained HTML mockups styled with Tailwind CSS utility classes.

Reply with a single JSON document and nothing else:

{"screens":[{"name":"...","description":"...","code":"..."}]}

Rules:
- Every screen object has exactly the keys "name", "description" and "code", written in that order.
- "name" is a short title. "description" is one or two sentences of markdown explaining the screen.
- "code" is the complete HTML body for the screen as a JSON string. Escape quotes and newlines.
- Do not use <script> elements or inline event handlers.
- Size layouts with percentages instead of viewport units.`

const refinePrompt = `You are a UI designer who edits self-contained HTML mockups styled with Tailwind CSS utility classes.

You receive one screen as JSON and an instruction. Reply with the updated screen as a single JSON object
with exactly the keys "name", "description" and "code", in that order, and nothing else.
Keep everything the instruction does not ask to change. Do not use <script> elements or inline event handlers.`

func platformHint(platform string) string {
	switch strings.ToLower(platform) {
	case PlatformMobile:
		return "Design for a phone in portrait orientation, about 390 pixels wide."
	default:
		return "Design for a desktop browser window."
	}
}

func generationPrompt(req Request) string {
	return fmt.Sprintf("Generate %d distinct screens for the following product.\n%s\n\n%s",
		req.Count, platformHint(req.Platform), strings.TrimSpace(req.Prompt))
}
