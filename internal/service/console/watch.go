package console

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/panic-alert/internal/api/view"
	"github.com/oshokin/panic-alert/internal/logger"
)

// DefaultPollInterval is the status polling interval of the watch action.
const DefaultPollInterval = 2 * time.Second

// statusSource fetches tenant snapshots.
type statusSource interface {
	GetStatus(ctx context.Context, tenantRef string) (*view.Status, error)
}

// watch polls the tenant status and prints it whenever the revision changes.
// While the siren sounds every poll rings the terminal bell. It returns nil when ctx ends.
func watch(ctx context.Context, source statusSource, opts *Options) error {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	logger.InfoKV(ctx, "Watching panel status", "tenant", opts.Tenant, "interval", interval.String())

	var (
		lastRevision uint64
		seen         bool
	)

	poll := func() {
		status, err := source.GetStatus(ctx, opts.Tenant)
		if err != nil {
			logger.ErrorKV(ctx, "Status poll failed", "error", err)

			return
		}

		if !seen || status.Revision != lastRevision {
			seen = true
			lastRevision = status.Revision

			if err = printWatchFrame(opts.Out, status); err != nil {
				logger.WarnKV(ctx, "Status print failed", "error", err)
			}
		}

		if status.Siren.Sounding && opts.Bell {
			_, _ = io.WriteString(opts.Out, "\a")
		}
	}

	poll()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
			poll()
		}
	}
}

// printWatchFrame prints one status with a separator.
func printWatchFrame(out io.Writer, status *view.Status) error {
	if _, err := fmt.Fprintf(out, "--- %s (revision %d)\n", status.ServerTime, status.Revision); err != nil {
		return err
	}

	return printStatus(out, status)
}
