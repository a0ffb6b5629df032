// Package configcmder provides the config command for managing persistent
// screens configuration stored in the .screens/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/screens/pkg/cliui"
	"github.com/papercomputeco/screens/pkg/config"
)

const configLongDesc string = `Manage persistent screens configuration.

Configuration is stored as config.toml in the .screens/ directory and provides
default values for command flags. SCREENS_* environment variables override
the file, and CLI flags always take precedence over both.

Keys use dotted notation matching the TOML section structure:
  generation.count, generation.attempts, generation.initial_delay,
  generation.max_delay, generation.placeholder,
  api.listen, client.api_target,
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  eventstream.provider, eventstream.brokers, eventstream.topic

The [[endpoints]] fallback chain is edited in config.toml directly.

Use subcommands to get, set, or list configuration values:
  screens config set <key> <value>    Set a configuration value
  screens config get <key>            Get a configuration value
  screens config list                 List all configuration values

Examples:
  screens config set storage.provider sqlite
  screens config set generation.count 5
  screens config get eventstream.topic
  screens config list`

const configShortDesc string = "Manage persistent screens configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// printTarget writes which config file a subcommand operates on.
func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
