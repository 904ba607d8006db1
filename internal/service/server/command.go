package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/oshokin/panic-alert/internal/api/grpc/panel"
	"github.com/oshokin/panic-alert/internal/config"
	"github.com/oshokin/panic-alert/internal/logger"
	"github.com/oshokin/panic-alert/internal/version"
)

// Options controls the panic-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// HTTPAddress overrides the web API listen address from config.
	HTTPAddress string
	// GRPCAddress overrides the gRPC listen address from config.
	GRPCAddress string
	// Ready, when set, receives the bound addresses once both listeners are open.
	Ready func(httpAddr, grpcAddr string)
}

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// Run starts the HTTP and gRPC servers and blocks until ctx is canceled or a server fails.
//
//nolint:funlen // Linear wiring of every component.
func Run(ctx context.Context, opts *Options) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	if err = logger.Configure(settings.LogLevel, settings.LogFormat); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	// Named after Configure so the context carries the configured logger.
	ctx = logger.WithName(ctx, "panic-server")

	a, err := newApp(settings)
	if err != nil {
		return fmt.Errorf("initialise panel: %w", err)
	}

	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.startBackground(ctx, settings)

	lc := net.ListenConfig{}

	var httpListener, grpcListener net.Listener

	if settings.HTTPAddress != "" {
		if httpListener, err = lc.Listen(ctx, "tcp", settings.HTTPAddress); err != nil {
			return fmt.Errorf("listen on %s: %w", settings.HTTPAddress, err)
		}
	}

	if settings.GRPCAddress != "" {
		if grpcListener, err = lc.Listen(ctx, "tcp", settings.GRPCAddress); err != nil {
			if httpListener != nil {
				_ = httpListener.Close()
			}

			return fmt.Errorf("listen on %s: %w", settings.GRPCAddress, err)
		}
	}

	logger.InfoKV(
		ctx,
		"Panic server starting",
		"version", version.Short(),
		"http_address", addrOf(httpListener),
		"grpc_address", addrOf(grpcListener),
		"schools_file", settings.SchoolsFile,
		"console_gate", settings.ConsolePasswordHash != "",
	)

	if opts.Ready != nil {
		opts.Ready(addrOf(httpListener), addrOf(grpcListener))
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if httpListener != nil {
		srv := &http.Server{
			Handler:           a.handler(settings),
			ReadHeaderTimeout: settings.Timeout,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}

		group.Go(func() error {
			if err := srv.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve HTTP: %w", err)
			}

			return nil
		})

		group.Go(func() error {
			<-groupCtx.Done()
			logger.Info(ctx, "Shutting down HTTP server")

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			return srv.Shutdown(shutdownCtx)
		})
	}

	if grpcListener != nil {
		grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
			loggingInterceptor(ctx),
			panel.ConsoleGate([]byte(settings.ConsolePasswordHash)),
		))
		panel.Register(grpcServer, panel.NewServer(a.coordinator))

		group.Go(func() error {
			if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve gRPC: %w", err)
			}

			return nil
		})

		group.Go(func() error {
			<-groupCtx.Done()
			logger.Info(ctx, "Shutting down gRPC server")
			grpcServer.GracefulStop()

			return nil
		})
	}

	err = group.Wait()

	logger.Info(ctx, "Panic server stopped")

	return err
}

// loadSettings reads the config file and applies address overrides.
// A missing file is accepted when an address is given on the command line.
func loadSettings(opts *Options) (*config.Config, error) {
	settings, err := config.Load(opts.ConfigPath)

	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && (opts.HTTPAddress != "" || opts.GRPCAddress != ""):
		settings = new(config.Config)
	default:
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.HTTPAddress != "" {
		settings.HTTPAddress = opts.HTTPAddress
	}

	if opts.GRPCAddress != "" {
		settings.GRPCAddress = opts.GRPCAddress
	}

	if err = config.Validate(settings); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return settings, nil
}

// loggingInterceptor puts the base logger and the method name into each call context.
func loggingInterceptor(base context.Context) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logger.ToContext(ctx, logger.FromContext(base).With("method", info.FullMethod))

		start := time.Now()
		resp, err := handler(ctx, req)

		logger.DebugKV(ctx, "gRPC call", "duration", time.Since(start), "error", err)

		return resp, err
	}
}

// addrOf returns the bound address of l, or an empty string.
func addrOf(l net.Listener) string {
	if l == nil {
		return ""
	}

	return l.Addr().String()
}
