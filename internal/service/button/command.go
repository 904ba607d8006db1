package button

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/panic-alert/internal/api/view"
	"github.com/oshokin/panic-alert/internal/config"
	"github.com/oshokin/panic-alert/internal/logger"
	"github.com/oshokin/panic-alert/internal/service/common"
)

// Options configures a panic button press.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides the gRPC address from config when specified.
	ServerAddress string

	// Tenant is the school the alert belongs to.
	Tenant string
	// Teacher defaults to the logged-in user.
	Teacher string
	// Room defaults to the hostname.
	Room string
	// Description is an optional note.
	Description string

	// RetryInterval is the delay between failed attempts; zero uses the default.
	RetryInterval time.Duration
}

// defaultRetryInterval defines retry delay when the server cannot be reached.
const defaultRetryInterval = time.Second

// errPermanent marks failures that retrying cannot fix.
var errPermanent = errors.New("alert rejected")

// Run submits one alert, retrying until the server accepts it, rejects it for good, or ctx ends.
func Run(ctx context.Context, opts *Options) (*view.SubmitResponse, error) {
	ctx = logger.WithName(ctx, "panic-button")

	serverAddress, timeout, err := resolveServer(opts)
	if err != nil {
		return nil, err
	}

	req, err := buildRequest(opts)
	if err != nil {
		return nil, err
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(timeout))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Sending panic alert", "server_address", serverAddress, "teacher", req.Teacher, "room", req.Room)

	interval := opts.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}

	for {
		resp, err := client.SubmitAlert(ctx, req)
		if err == nil {
			logger.InfoKV(ctx, "Panic alert accepted", "alert_id", resp.Alert.ID, "tenant", resp.Alert.Tenant)

			return resp, nil
		}

		wait, retry := backoff(err, interval)
		if !retry {
			return nil, fmt.Errorf("%w: %w", errPermanent, err)
		}

		logger.WarnKV(ctx, "Panic alert not delivered, retrying", "error", err, "retry_in", wait)

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// resolveServer picks the gRPC address and call timeout from options and config.
// A missing config file is fine when the address is given explicitly.
func resolveServer(opts *Options) (string, time.Duration, error) {
	cfg, err := config.Load(opts.ConfigPath)

	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && opts.ServerAddress != "":
		return opts.ServerAddress, config.DefaultTimeout, nil
	default:
		return "", 0, err
	}

	serverAddress := cfg.GRPCAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	return serverAddress, cfg.Timeout, nil
}

// buildRequest fills teacher and room from the machine when not given.
func buildRequest(opts *Options) (*view.SubmitRequest, error) {
	req := &view.SubmitRequest{
		Tenant:      opts.Tenant,
		Teacher:     opts.Teacher,
		Room:        opts.Room,
		Description: opts.Description,
	}

	if req.Teacher != "" && req.Room != "" {
		return req, nil
	}

	actor, err := common.DetectActor()
	if err != nil {
		return nil, err
	}

	if req.Teacher == "" {
		req.Teacher = actor.Username
	}

	if req.Room == "" {
		req.Room = actor.Hostname
	}

	return req, nil
}

// backoff decides whether and when to retry after err.
// Throttled calls wait as long as the server asks; invalid requests are not retried.
func backoff(err error, interval time.Duration) (time.Duration, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return interval, true
	}

	switch st.Code() {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.Unimplemented:
		return 0, false
	case codes.ResourceExhausted:
		for _, detail := range st.Details() {
			if info, ok := detail.(*errdetails.RetryInfo); ok && info.GetRetryDelay() != nil {
				return max(info.GetRetryDelay().AsDuration(), interval), true
			}
		}

		return interval, true
	default:
		return interval, true
	}
}
