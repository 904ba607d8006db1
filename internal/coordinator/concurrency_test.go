package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/panic-alert/internal/ratelimit"
	"github.com/oshokin/panic-alert/internal/tenant"
)

// TestConcurrentSubmissions_NoLostUpdates runs M workers submitting K alerts each.
func TestConcurrentSubmissions_NoLostUpdates(t *testing.T) {
	t.Parallel()

	const (
		workers = 16
		perWork = 50
	)

	ctx := context.Background()
	co := New(tenant.NewRegistry(0), ratelimit.New(time.Hour, perWork))

	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range perWork {
				_, err := co.SubmitAlert(ctx, &SubmitRequest{
					Tenant:  "shared",
					Teacher: "T",
					Room:    "R",
					Source:  fmt.Sprintf("worker-%d", w),
				})
				if err != nil {
					t.Errorf("submit: %v", err)

					return
				}
			}
		}()
	}

	wg.Wait()

	status, err := co.Snapshot(ctx, "shared", 0)
	require.NoError(t, err)
	require.Equal(t, workers*perWork, status.TotalAlerts)

	seen := make(map[int64]struct{}, len(status.Alerts))
	for _, rec := range status.Alerts {
		_, dup := seen[rec.ID]
		require.False(t, dup, "duplicate id %d", rec.ID)
		seen[rec.ID] = struct{}{}
	}

	require.Len(t, seen, workers*perWork)
}

// TestConcurrentResolveNext_OneWinnerPerAlert races resolvers against a fixed set of alerts.
func TestConcurrentResolveNext_OneWinnerPerAlert(t *testing.T) {
	t.Parallel()

	const alerts = 40

	ctx := context.Background()
	co := New(tenant.NewRegistry(0), ratelimit.New(time.Hour, alerts))

	for range alerts {
		_, err := co.SubmitAlert(ctx, &SubmitRequest{Teacher: "T", Room: "R", Source: "s"})
		require.NoError(t, err)
	}

	var (
		wins atomic.Int64
		wg   sync.WaitGroup
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range alerts {
				ok, err := co.ResolveNext(ctx, "")
				if err == nil && ok {
					wins.Add(1)
				}
			}
		}()
	}

	wg.Wait()

	require.Equal(t, int64(alerts), wins.Load())

	status, err := co.GetStatus(ctx, "")
	require.NoError(t, err)
	require.Zero(t, status.ActiveAlerts)
	require.False(t, status.Siren.Active)
}

// TestConcurrentReadersSeeConsistentSnapshots checks counts never tear during writes.
func TestConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	co := New(tenant.NewRegistry(0), ratelimit.New(time.Hour, 10000), WithRecentLimit(10000))

	done := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		defer close(done)

		for i := range 300 {
			_, _ = co.SubmitAlert(ctx, &SubmitRequest{Teacher: "T", Room: "R", Source: "w"})

			if i%3 == 0 {
				_, _ = co.ResolveNext(ctx, "")
			}
		}
	}()

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for {
				select {
				case <-done:
					return
				default:
				}

				status, err := co.GetStatus(ctx, "")
				if err != nil {
					t.Errorf("status: %v", err)

					return
				}

				var active int

				for _, rec := range status.Alerts {
					if rec.IsActive() {
						active++
					}
				}

				if active != status.ActiveAlerts || len(status.Alerts) != status.TotalAlerts {
					t.Errorf("torn snapshot: active %d/%d, total %d/%d",
						active, status.ActiveAlerts, len(status.Alerts), status.TotalAlerts)

					return
				}

				if status.ActiveAlerts > 0 && !status.Siren.Active {
					t.Errorf("siren off with %d active alerts", status.ActiveAlerts)

					return
				}
			}
		}()
	}

	wg.Wait()
}
