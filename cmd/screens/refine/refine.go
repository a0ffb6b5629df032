// Package refinecmder provides the refine command for editing one screen of
// the last generation.
package refinecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/screens/pkg/bootstrap"
	"github.com/papercomputeco/screens/pkg/cliui"
	"github.com/papercomputeco/screens/pkg/config"
	"github.com/papercomputeco/screens/pkg/dotdir"
	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/logger"
)

type refineCommander struct {
	flags struct {
		attempts     uint
		initialDelay string
		maxDelay     string
		storage      string
		sqlitePath   string
		postgresDSN  string
	}

	number      int
	instruction string
	platform    string
	model       string
	showCode    bool

	cfg       *config.Config
	configDir string
	debug     bool
	out       io.Writer
	logger    *slog.Logger
}

var flagKeys = []string{
	config.FlagAttempts,
	config.FlagInitialDelay,
	config.FlagMaxDelay,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
}

// ErrNoLastGeneration is returned when nothing has been generated yet.
var ErrNoLastGeneration = errors.New(`no saved generation, run "screens generate" first`)

const refineLongDesc string = `Refine a screen of the last generation.

The screen is picked by the number shown next to it by "screens generate"
and "screens status". The refined screen is stored under a new ID and
replaces the original in .screens/last.json.

Examples:
  screens refine 1 "use a dark color scheme"
  screens refine 2 "add a search bar to the header" --code`

const refineShortDesc string = "Refine a screen of the last generation"

func NewRefineCmd() *cobra.Command {
	cmder := &refineCommander{out: os.Stdout}

	cmd := &cobra.Command{
		Use:   "refine <number> <instruction>",
		Short: refineShortDesc,
		Long:  refineLongDesc,
		Args:  cobra.MinimumNArgs(2),
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
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid screen number: %q", args[0])
			}
			cmder.number = n
			cmder.instruction = strings.Join(args[1:], " ")
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddUintFlag(cmd, config.Flags, config.FlagAttempts, &cmder.flags.attempts)
	config.AddStringFlag(cmd, config.Flags, config.FlagInitialDelay, &cmder.flags.initialDelay)
	config.AddStringFlag(cmd, config.Flags, config.FlagMaxDelay, &cmder.flags.maxDelay)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &cmder.flags.storage)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.flags.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.flags.postgresDSN)
	cmd.Flags().StringVarP(&cmder.platform, "platform", "p", "", "Target platform (web, mobile)")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Override the model of every endpoint")
	cmd.Flags().BoolVar(&cmder.showCode, "code", false, "Print the markup of the refined screen")

	return cmd
}

func (c *refineCommander) run(ctx context.Context) error {
	level := slog.LevelWarn
	if c.debug {
		level = slog.LevelDebug
	}
	c.logger = logger.New(
		logger.WithLevel(level),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)

	manager := dotdir.NewManager()
	last, err := manager.LoadLastGeneration(c.configDir)
	if err != nil {
		return fmt.Errorf("loading last generation: %w", err)
	}
	if last == nil {
		return ErrNoLastGeneration
	}

	saved, ok := last.Screen(c.number - 1)
	if !ok {
		return fmt.Errorf("no screen %d in the last generation (%d screens)", c.number, len(last.Screens))
	}

	stack, err := bootstrap.New(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			c.logger.Warn("closing runtime", "error", err)
		}
	}()

	var refined *generate.Screen
	err = cliui.Step(c.out, fmt.Sprintf("Refining %s", saved.Name), func() error {
		var err error
		refined, err = stack.Service.Refine(ctx, generate.RefineRequest{
			Screen:      savedToScreen(last.GenerationID, saved),
			Instruction: c.instruction,
			Platform:    c.platform,
			Model:       c.model,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("refining screen: %w", err)
	}

	if err := stack.Driver.Put(ctx, refined); err != nil {
		return fmt.Errorf("storing refined screen: %w", err)
	}

	*saved = dotdir.SavedScreen{
		ID:          refined.ID,
		Index:       refined.Index,
		Name:        refined.Name,
		Description: refined.Description,
		Code:        refined.Code,
		Truncated:   refined.Truncated,
	}
	if err := manager.SaveLastGeneration(last, c.configDir); err != nil {
		return fmt.Errorf("saving last generation: %w", err)
	}

	printer := cliui.NewScreenPrinter(c.out, c.showCode)
	printer.Update(generate.Update{
		GenerationID: refined.GenerationID,
		ScreenID:     refined.ID,
		Index:        refined.Index,
		Complete:     true,
		Screen:       refined,
	})
	printer.Finish()
	return nil
}

func savedToScreen(generationID string, s *dotdir.SavedScreen) *generate.Screen {
	return &generate.Screen{
		ID:           s.ID,
		GenerationID: generationID,
		Index:        s.Index,
		Name:         s.Name,
		Description:  s.Description,
		Code:         s.Code,
		Truncated:    s.Truncated,
	}
}
