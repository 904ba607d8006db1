package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/oshokin/panic-alert/internal/config"
	"github.com/oshokin/panic-alert/internal/service/server"
	"github.com/oshokin/panic-alert/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// httpAddress overrides the web API listen address.
	httpAddress string
	// grpcAddress overrides the gRPC listen address.
	grpcAddress string

	// rootCmd represents the base command for running the panel server.
	rootCmd = &cobra.Command{
		Use:   "panic-server",
		Short: "Run the school panic panel (HTTP + gRPC).",
		Long: `Starts the panic panel that receives classroom alerts and drives the siren.

The web API serves classroom submissions, public displays and the office console.
The gRPC API serves the panic-button and panic-console binaries.
Listen addresses come from the configuration file and can be overridden by flags.
All panel state is held in memory and is lost on restart.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return server.Run(ctx, &server.Options{
				ConfigPath:  configPath,
				HTTPAddress: httpAddress,
				GRPCAddress: grpcAddress,
			})
		},
	}

	// hashPasswordCmd prints a bcrypt hash for console_password_hash.
	hashPasswordCmd = &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for the console password.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return errEmptyPassword
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(hash))

			return err
		},
	}
)

var errEmptyPassword = errors.New("password must not be empty")

// Execute runs the panic-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&httpAddress, "http-addr", "", "override the web API listen address (e.g. :8080)")
	rootCmd.Flags().StringVar(&grpcAddress, "grpc-addr", "", "override the gRPC listen address (e.g. :9090)")

	rootCmd.AddCommand(hashPasswordCmd)
}
