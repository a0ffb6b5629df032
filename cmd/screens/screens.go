// Package screenscmder assembles the screens root command.
package screenscmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/screens/cmd/screens/auth"
	configcmder "github.com/papercomputeco/screens/cmd/screens/config"
	generatecmder "github.com/papercomputeco/screens/cmd/screens/generate"
	initcmder "github.com/papercomputeco/screens/cmd/screens/init"
	refinecmder "github.com/papercomputeco/screens/cmd/screens/refine"
	servecmder "github.com/papercomputeco/screens/cmd/screens/serve"
	statuscmder "github.com/papercomputeco/screens/cmd/screens/status"
	versioncmder "github.com/papercomputeco/screens/cmd/version"
)

const screensLongDesc string = `Screens generates UI screens from a prompt, streaming each screen
as the model writes it.

Generate locally or run the API server:
  screens generate "a todo app"    Generate screens in the terminal
  screens refine 1 "make it dark"  Edit a screen of the last generation
  screens serve                    Run the HTTP and MCP API server`

const screensShortDesc string = "Screens - streaming UI generation"

func NewScreensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "screens",
		Short:        screensShortDesc,
		Long:         screensLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .screens/ directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(generatecmder.NewGenerateCmd())
	cmd.AddCommand(refinecmder.NewRefineCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
