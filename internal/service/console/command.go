package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap/zapcore"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/oshokin/panic-alert/internal/api/view"
	"github.com/oshokin/panic-alert/internal/config"
	"github.com/oshokin/panic-alert/internal/logger"
	"github.com/oshokin/panic-alert/internal/service/common"
)

// Action is a console operation.
type Action string

const (
	// ActionStatus prints the tenant status.
	ActionStatus Action = "status"
	// ActionSiren applies a siren command.
	ActionSiren Action = "siren"
	// ActionResolve resolves the most recent active alert.
	ActionResolve Action = "resolve"
	// ActionResolveAll resolves every alert.
	ActionResolveAll Action = "resolve-all"
	// ActionClear empties the tenant history.
	ActionClear Action = "clear"
	// ActionWatch polls the status until interrupted.
	ActionWatch Action = "watch"
)

// Options configures one console invocation.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the gRPC address from config when specified.
	ServerAddress string
	// Tenant is the school to operate on.
	Tenant string
	// Action selects the operation.
	Action Action
	// SirenCommand is the argument of ActionSiren.
	SirenCommand string
	// JSON prints the raw response instead of a summary.
	JSON bool
	// Verbose keeps info level logs; otherwise only warnings are printed.
	Verbose bool
	// Password is the console password sent to the server.
	Password string
	// PollInterval is the polling interval of ActionWatch.
	PollInterval time.Duration
	// Bell rings the terminal bell while the siren sounds during ActionWatch.
	Bell bool
	// Out receives the command output.
	Out io.Writer
}

var errUnknownAction = errors.New("unknown console action")

// Run performs one console action and prints the result.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "panic-console")

	if !opts.Verbose {
		ctx = logger.Quiet(ctx, zapcore.WarnLevel)
	}

	serverAddress, timeout, err := resolveServer(opts)
	if err != nil {
		return err
	}

	client, err := common.Dial(
		ctx,
		serverAddress,
		common.WithCallTimeout(timeout),
		common.WithConsolePassword(opts.Password),
	)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Console action", "action", opts.Action, "tenant", opts.Tenant, "server_address", serverAddress)

	if opts.Action == ActionWatch {
		return watch(ctx, client, opts)
	}

	result, err := execute(ctx, client, opts)
	if err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(opts.Out, result)
	}

	return printSummary(opts.Out, result)
}

// execute dispatches the action.
func execute(ctx context.Context, client *common.Client, opts *Options) (any, error) {
	switch opts.Action {
	case ActionStatus:
		return client.GetStatus(ctx, opts.Tenant)
	case ActionSiren:
		return client.ApplySirenCommand(ctx, opts.Tenant, opts.SirenCommand)
	case ActionResolve:
		return client.ResolveNext(ctx, opts.Tenant)
	case ActionResolveAll:
		return client.ResolveAll(ctx, opts.Tenant)
	case ActionClear:
		return client.ClearTenant(ctx, opts.Tenant)
	default:
		return nil, fmt.Errorf("%q: %w", opts.Action, errUnknownAction)
	}
}

// resolveServer picks the gRPC address and call timeout from options and config.
func resolveServer(opts *Options) (string, time.Duration, error) {
	cfg, err := config.Load(opts.ConfigPath)

	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && opts.ServerAddress != "":
		return opts.ServerAddress, config.DefaultTimeout, nil
	default:
		return "", 0, err
	}

	if opts.ServerAddress != "" {
		return opts.ServerAddress, cfg.Timeout, nil
	}

	return cfg.GRPCAddress, cfg.Timeout, nil
}

// printJSON renders the response the way it travelled on the wire.
func printJSON(out io.Writer, result any) error {
	s, err := view.ToStruct(result)
	if err != nil {
		return err
	}

	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}

	_, err = fmt.Fprintln(out, string(data))

	return err
}

// printSummary renders a short human-readable result.
func printSummary(out io.Writer, result any) error {
	switch r := result.(type) {
	case *view.Status:
		return printStatus(out, r)
	case *view.SirenResponse:
		_, err := fmt.Fprintf(out, "Siren: %s (updated %s)\n", r.Siren.Mode, orDash(r.Siren.LastUpdateDisplay))

		return err
	case *view.ResolveResponse:
		_, err := fmt.Fprintf(out, "Resolved %d alert(s)\n", r.Resolved)

		return err
	default:
		_, err := fmt.Fprintln(out, "OK")

		return err
	}
}

// printStatus renders the siren line and a table of recent alerts.
func printStatus(out io.Writer, s *view.Status) error {
	var b strings.Builder

	fmt.Fprintf(&b, "School: %s\n", s.Tenant)
	fmt.Fprintf(&b, "Siren: %s (updated %s)\n", s.Siren.Mode, orDash(s.Siren.LastUpdateDisplay))
	fmt.Fprintf(&b, "Alerts: %d total, %d active\n", s.TotalAlerts, s.ActiveAlerts)

	if len(s.Alerts) > 0 {
		b.WriteString("\n")

		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tTEACHER\tROOM\tSTATUS\tDESCRIPTION")

		for _, a := range s.Alerts {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.CreatedAtDisplay, a.Teacher, a.Room, a.Status, a.Description)
		}

		if err := tw.Flush(); err != nil {
			return err
		}
	}

	_, err := io.WriteString(out, b.String())

	return err
}

// orDash replaces an empty value with a dash.
func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
