package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/panic-alert/internal/config"
	"github.com/oshokin/panic-alert/internal/service/button"
	"github.com/oshokin/panic-alert/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// options collects the alert fields from flags.
	options button.Options

	// rootCmd represents the base command for raising a panic alert.
	rootCmd = &cobra.Command{
		Use:   "panic-button [server-address]",
		Short: "Raise a panic alert from this classroom.",
		Long: `Sends a panic alert to the school panel and sounds the siren.

The alert is resent until the server confirms it. Teacher defaults to the
logged-in user and room defaults to this computer's hostname.
Server address can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use server address argument if provided, otherwise rely on config.
			if len(args) > 0 {
				options.ServerAddress = args[0]
			}

			options.ConfigPath = cfgPath

			_, err := button.Run(ctx, &options)

			return err
		},
	}
)

// Execute runs the panic-button CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&options.Teacher, "teacher", "t", "", "teacher name (default: logged-in user)")
	rootCmd.Flags().StringVarP(&options.Room, "room", "r", "", "room (default: hostname)")
	rootCmd.Flags().StringVarP(&options.Description, "description", "d", "", "what is happening")
	rootCmd.Flags().StringVar(&options.Tenant, "tenant", "", "school identifier")
}
