// Package statuscmder provides the status command for displaying the last
// generation saved in the .screens directory.
package statuscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/screens/pkg/cliui"
	"github.com/papercomputeco/screens/pkg/dotdir"
	"github.com/papercomputeco/screens/pkg/utils"
)

const statusLongDesc string = `Show the last generation.

Reads the local .screens/ directory (or ~/.screens/) to display the prompt
and screens of the most recent "screens generate" run. The numbers shown
are the ones "screens refine" accepts.

Examples:
  screens status`

const statusShortDesc string = "Show the last generation"

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runStatus(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runStatus(w io.Writer, configDir string) error {
	manager := dotdir.NewManager()

	last, err := manager.LoadLastGeneration(configDir)
	if err != nil {
		return fmt.Errorf("loading last generation: %w", err)
	}

	if last == nil {
		fmt.Fprintf(w, "  %s No saved generation. Run \"screens generate\" to create one.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Fprintf(w, "\n  %s  %s\n", cliui.KeyStyle.Render("Generation:"), cliui.IDStyle.Render(last.GenerationID))
	fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render("Prompt:    "), cliui.PreviewStyle.Render(utils.Truncate(last.Prompt, 72)))
	fmt.Fprintf(w, "  %s  %s\n\n", cliui.KeyStyle.Render("Screens:   "), cliui.NameStyle.Render(fmt.Sprint(len(last.Screens))))

	for _, s := range last.Screens {
		mark := ""
		if s.Truncated {
			mark = " " + cliui.WarnMark
		}
		fmt.Fprintf(w, "  %s %s %s%s\n",
			cliui.DimStyle.Render(fmt.Sprintf("%d.", s.Index+1)),
			cliui.NameStyle.Render(s.Name),
			cliui.IDStyle.Render(s.ID),
			mark,
		)
		if s.Description != "" {
			fmt.Fprintf(w, "     %s\n", cliui.PreviewStyle.Render(utils.Truncate(s.Description, 72)))
		}
		if s.Code != "" {
			fmt.Fprintf(w, "     %s\n", cliui.DimStyle.Render(cliui.CodePreview(s.Code, 72)))
		}
	}

	fmt.Fprintln(w)
	return nil
}
