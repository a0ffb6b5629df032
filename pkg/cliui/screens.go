package cliui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/utils"
)

// ScreenPrinter renders generation updates as they arrive. On a terminal the
// screen in flight is shown on a single redrawn status line; finished screens
// are printed as blocks. Without a terminal only finished screens are
// printed, as plain text.
type ScreenPrinter struct {
	w        io.Writer
	tty      bool
	showCode bool

	mu       sync.Mutex
	frame    int
	lineOpen bool
}

// NewScreenPrinter creates a printer writing to w. showCode includes the
// generated markup in finished blocks.
func NewScreenPrinter(w io.Writer, showCode bool) *ScreenPrinter {
	return &ScreenPrinter{
		w:        w,
		tty:      IsTerminal(w),
		showCode: showCode,
	}
}

// Update handles one generation update.
func (p *ScreenPrinter) Update(u generate.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !u.Complete {
		if p.tty {
			p.progress(u)
		}
		return
	}

	p.clearLine()
	p.block(u.Index, u.Screen)
}

// Finish clears any open status line.
func (p *ScreenPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLine()
}

func (p *ScreenPrinter) progress(u generate.Update) {
	name := u.Fields.Name.Value()
	state := "describing"
	if !u.Fields.Code.IsPending() {
		state = fmt.Sprintf("%d bytes of code", len(u.Fields.Code.Value()))
	}

	fmt.Fprintf(p.w, "\r\033[K  %s %s %s %s",
		spinnerStyle.Render(spinnerFrames[p.frame%len(spinnerFrames)]),
		DimStyle.Render(fmt.Sprintf("[%d]", u.Index+1)),
		NameStyle.Render(utils.Truncate(name, 40)),
		StepStyle.Render("("+state+")"),
	)
	p.frame++
	p.lineOpen = true
}

func (p *ScreenPrinter) clearLine() {
	if p.lineOpen {
		fmt.Fprint(p.w, "\r\033[K")
		p.lineOpen = false
	}
}

func (p *ScreenPrinter) block(index int, s *generate.Screen) {
	if s == nil {
		return
	}

	mark := SuccessMark
	if s.Truncated {
		mark = WarnMark
	}

	if !p.tty {
		fmt.Fprintf(p.w, "[%d] %s (%s)\n", index+1, s.Name, s.ID)
		if s.Description != "" {
			fmt.Fprintf(p.w, "    %s\n", s.Description)
		}
		if p.showCode {
			fmt.Fprintf(p.w, "%s\n", s.Code)
		}
		fmt.Fprintln(p.w)
		return
	}

	fmt.Fprintf(p.w, "  %s %s %s  %s\n",
		mark,
		DimStyle.Render(fmt.Sprintf("[%d]", index+1)),
		NameStyle.Render(s.Name),
		IDStyle.Render(s.ID),
	)
	if s.Truncated {
		fmt.Fprintf(p.w, "    %s\n", DimStyle.Render("stream ended before this screen was finished"))
	}

	if s.Description != "" {
		rendered, err := RenderMarkdown(s.Description)
		if err != nil {
			rendered = "    " + s.Description + "\n"
		}
		fmt.Fprint(p.w, rendered)
	}

	if p.showCode {
		rendered, err := RenderMarkdown("```html\n" + s.Code + "\n```")
		if err != nil {
			rendered = s.Code + "\n"
		}
		fmt.Fprint(p.w, rendered)
	}
}

// CodePreview returns the first line of code shortened to width.
func CodePreview(code string, width int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(code), "\n")
	return utils.Truncate(line, width)
}
