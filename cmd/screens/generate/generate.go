// Package generatecmder provides the generate command, which streams screens
// for a prompt to the terminal and saves them for later refinement.
package generatecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/screens/api"
	"github.com/papercomputeco/screens/pkg/bootstrap"
	"github.com/papercomputeco/screens/pkg/cliui"
	"github.com/papercomputeco/screens/pkg/config"
	"github.com/papercomputeco/screens/pkg/dotdir"
	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/logger"
	"github.com/papercomputeco/screens/pkg/stream"
)

type generateCommander struct {
	flags struct {
		count        uint
		attempts     uint
		initialDelay string
		maxDelay     string
		storage      string
		sqlitePath   string
		postgresDSN  string
		apiTarget    string
	}

	prompt   string
	platform string
	model    string
	showCode bool
	remote   bool

	cfg       *config.Config
	configDir string
	debug     bool
	out       io.Writer
	logger    *slog.Logger
}

var flagKeys = []string{
	config.FlagCount,
	config.FlagAttempts,
	config.FlagInitialDelay,
	config.FlagMaxDelay,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagAPITarget,
}

const generateLongDesc string = `Generate screens for a prompt.

Each screen is shown as soon as its name arrives and is finished in place
while the model writes it. Completed screens are stored and the run is saved
to .screens/last.json so "screens refine" and "screens status" can use it.

By default the generation runs in this process against the endpoints in
config.toml. With --remote it is streamed from a running "screens serve".

Examples:
  screens generate "a habit tracker"
  screens generate "checkout flow for a shoe store" -n 5 --platform mobile
  screens generate "admin dashboard" --code
  screens generate "onboarding" --remote --api-target http://localhost:8081`

const generateShortDesc string = "Generate screens for a prompt"

func NewGenerateCmd() *cobra.Command {
	cmder := &generateCommander{out: os.Stdout}

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cmder.cfg, err = config.Load(cmd, cmder.configDir, flagKeys)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.prompt = strings.Join(args, " ")
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddUintFlag(cmd, config.Flags, config.FlagCount, &cmder.flags.count)
	config.AddUintFlag(cmd, config.Flags, config.FlagAttempts, &cmder.flags.attempts)
	config.AddStringFlag(cmd, config.Flags, config.FlagInitialDelay, &cmder.flags.initialDelay)
	config.AddStringFlag(cmd, config.Flags, config.FlagMaxDelay, &cmder.flags.maxDelay)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &cmder.flags.storage)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.flags.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.flags.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.flags.apiTarget)
	cmd.Flags().StringVarP(&cmder.platform, "platform", "p", "", "Target platform (web, mobile)")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Override the model of every endpoint")
	cmd.Flags().BoolVar(&cmder.showCode, "code", false, "Print the markup of each finished screen")
	cmd.Flags().BoolVar(&cmder.remote, "remote", false, "Stream from a running screens API server")

	return cmd
}

func (c *generateCommander) run(ctx context.Context) error {
	level := slog.LevelWarn
	if c.debug {
		level = slog.LevelDebug
	}
	c.logger = logger.New(
		logger.WithLevel(level),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := generate.Request{
		Prompt:   c.prompt,
		Count:    c.cfg.Generation.Count,
		Platform: c.platform,
		Model:    c.model,
	}

	printer := cliui.NewScreenPrinter(c.out, c.showCode)

	var (
		done    api.DoneEvent
		screens []*generate.Screen
		err     error
	)
	if c.remote {
		done, screens, err = c.runRemote(ctx, req, printer)
	} else {
		done, screens, err = c.runLocal(ctx, req, printer)
	}
	printer.Finish()
	if err != nil {
		return err
	}

	if len(screens) > 0 {
		if err := saveLast(done.GenerationID, c.prompt, screens, c.configDir); err != nil {
			c.logger.Warn("could not save last generation", "error", err)
		}
	}

	return c.summarize(done)
}

func (c *generateCommander) runLocal(ctx context.Context, req generate.Request, printer *cliui.ScreenPrinter) (api.DoneEvent, []*generate.Screen, error) {
	stack, err := bootstrap.New(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return api.DoneEvent{}, nil, err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			c.logger.Warn("closing runtime", "error", err)
		}
	}()

	res := stack.Service.Generate(ctx, req, printer.Update)
	return api.NewDoneEvent(res), res.Screens, nil
}

func (c *generateCommander) runRemote(ctx context.Context, req generate.Request, printer *cliui.ScreenPrinter) (api.DoneEvent, []*generate.Screen, error) {
	var screens []*generate.Screen

	done, err := StreamAPI(ctx, c.cfg.Client.APITarget, req, func(ev api.ScreenEvent) {
		u := eventUpdate(ev)
		if u.Screen != nil {
			screens = append(screens, u.Screen)
		}
		printer.Update(u)
	})
	if err != nil {
		return api.DoneEvent{}, screens, err
	}
	return *done, screens, nil
}

func (c *generateCommander) summarize(done api.DoneEvent) error {
	switch done.Outcome {
	case stream.Completed.String():
		fmt.Fprintf(c.out, "  %s %d screens  %s\n",
			cliui.SuccessMark,
			done.Screens,
			cliui.DimStyle.Render(done.GenerationID),
		)
		return nil

	case stream.Cancelled.String():
		fmt.Fprintf(c.out, "  %s cancelled after %d screens\n", cliui.WarnMark, done.Screens)
		return nil

	default:
		fmt.Fprintf(c.out, "  %s generation failed after %d screens (%s)\n",
			cliui.FailMark,
			done.Screens,
			done.Failure,
		)
		return fmt.Errorf("generation failed: %s", done.Error)
	}
}

func saveLast(generationID, prompt string, screens []*generate.Screen, configDir string) error {
	last := &dotdir.LastGeneration{
		GenerationID: generationID,
		Prompt:       prompt,
		Screens:      make([]dotdir.SavedScreen, 0, len(screens)),
	}
	for _, s := range screens {
		last.Screens = append(last.Screens, dotdir.SavedScreen{
			ID:          s.ID,
			Index:       s.Index,
			Name:        s.Name,
			Description: s.Description,
			Code:        s.Code,
			Truncated:   s.Truncated,
		})
	}

	return dotdir.NewManager().SaveLastGeneration(last, configDir)
}
