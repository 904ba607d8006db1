package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/panic-alert/internal/config"
	"github.com/oshokin/panic-alert/internal/service/console"
	"github.com/oshokin/panic-alert/internal/version"
)

// passwordEnv supplies the console password without putting it on the command line.
const passwordEnv = "PANIC_CONSOLE_PASSWORD"

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the gRPC address from config.
	serverAddress string
	// tenant selects the school.
	tenant string
	// password is the console password.
	password string
	// jsonOutput prints raw responses.
	jsonOutput bool
	// verbose keeps info logs.
	verbose bool
	// pollInterval is the watch polling interval.
	pollInterval time.Duration
	// bell rings the terminal bell while the siren sounds.
	bell bool

	// rootCmd groups the console actions.
	rootCmd = &cobra.Command{
		Use:   "panic-console",
		Short: "Operate the school panic panel from the office.",
		Long: `Shows the panel status and controls the siren.

Actions talk to the panel server over gRPC. Server address comes from the
configuration file unless --server is given.`,
	}
)

// newActionCommand builds a subcommand that runs one console action.
func newActionCommand(use, short string, action console.Action, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &console.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				Tenant:        tenant,
				Action:        action,
				JSON:          jsonOutput,
				Verbose:       verbose,
				Password:      password,
				PollInterval:  pollInterval,
				Bell:          bell,
				Out:           cmd.OutOrStdout(),
			}

			if len(args) > 0 {
				options.SirenCommand = args[0]
			}

			return console.Run(ctx, options)
		},
	}
}

// Execute runs the panic-console CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "s", "", "panel gRPC address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&tenant, "tenant", "", "school identifier")
	rootCmd.PersistentFlags().StringVar(&password, "password", os.Getenv(passwordEnv),
		"console password (defaults to $"+passwordEnv+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON responses")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print info logs")

	rootCmd.AddCommand(
		newActionCommand("status", "Show siren state and recent alerts.", console.ActionStatus, cobra.NoArgs),
		newActionCommand("siren <on|off|mute|unmute>", "Control the siren.", console.ActionSiren,
			cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
		newActionCommand("resolve", "Resolve the most recent active alert.", console.ActionResolve, cobra.NoArgs),
		newActionCommand("resolve-all", "Resolve every alert and stop the siren.", console.ActionResolveAll, cobra.NoArgs),
		newActionCommand("clear", "Erase the alert history and reset the siren.", console.ActionClear, cobra.NoArgs),
	)

	watchCmd := newActionCommand("watch", "Follow the panel status until interrupted.", console.ActionWatch, cobra.NoArgs)
	watchCmd.Flags().DurationVar(&pollInterval, "interval", console.DefaultPollInterval, "status polling interval")
	watchCmd.Flags().BoolVar(&bell, "bell", true, "ring the terminal bell while the siren sounds")
	rootCmd.AddCommand(watchCmd)

	for _, c := range rootCmd.Commands() {
		if c.Name() == "siren" {
			c.ValidArgs = []string{"on", "off", "mute", "unmute"}
		}
	}
}
