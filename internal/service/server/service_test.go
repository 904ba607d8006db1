package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/panic-alert/internal/config"
	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/service/common"
)

// testSettings returns validated settings with files in a temp dir.
func testSettings(t *testing.T) *config.Config {
	t.Helper()

	settings := &config.Config{
		HTTPAddress: "127.0.0.1:0",
		GRPCAddress: "127.0.0.1:0",
		SchoolsFile: filepath.Join(t.TempDir(), "schools.yaml"),
	}
	require.NoError(t, config.Validate(settings))

	return settings
}

// TestLoadSettings_OverridesAndMissingFile covers address overrides.
func TestLoadSettings_OverridesAndMissingFile(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := loadSettings(&Options{ConfigPath: missing})
	require.Error(t, err)

	settings, err := loadSettings(&Options{ConfigPath: missing, HTTPAddress: ":8080"})
	require.NoError(t, err)
	require.Equal(t, ":8080", settings.HTTPAddress)
	require.Equal(t, config.DefaultRateLimit, settings.RateLimit.MaxPerWindow)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, &config.Config{HTTPAddress: ":8080", GRPCAddress: ":9090"}))

	settings, err = loadSettings(&Options{ConfigPath: path, GRPCAddress: ":7070"})
	require.NoError(t, err)
	require.Equal(t, ":8080", settings.HTTPAddress)
	require.Equal(t, ":7070", settings.GRPCAddress)
}

// TestNewApp_WiresMetricsAndLimits checks the assembled components cooperate.
func TestNewApp_WiresMetricsAndLimits(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	settings.RateLimit.MaxPerWindow = 2

	p, err := newApp(settings)
	require.NoError(t, err)

	defer p.close()

	ctx := context.Background()
	req := &coordinator.SubmitRequest{Tenant: "escola", Teacher: "Ana", Room: "Lab", Source: "10.0.0.1"}

	for range 2 {
		_, err = p.coordinator.SubmitAlert(ctx, req)
		require.NoError(t, err)
	}

	_, err = p.coordinator.SubmitAlert(ctx, req)
	require.ErrorIs(t, err, coordinator.ErrRateLimited)

	count, err := testutil.GatherAndCount(p.recorder.Registry(), "panic_alert_alerts_submitted_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.Equal(t, 1, p.registry.Len())
	require.Equal(t, 1, p.limiter.Len())

	data, err := p.reports.Generate(ctx, "escola", "xlsx")
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

// TestRun_ServesBothTransports starts the server, talks to both listeners and stops it.
// Run replaces the global logger, so this test is not parallel.
func TestRun_ServesBothTransports(t *testing.T) { //nolint:paralleltest // Run reconfigures the global logger.
	settings := testSettings(t)
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(cfgPath, settings))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan [2]string, 1)
	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, &Options{
			ConfigPath: cfgPath,
			Ready: func(httpAddr, grpcAddr string) {
				ready <- [2]string{httpAddr, grpcAddr}
			},
		})
	}()

	var addrs [2]string

	select {
	case addrs = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addrs[0])) //nolint:noctx // Test helper.
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	client, err := common.Dial(ctx, addrs[1], common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = client.Close()
	}()

	status, err := client.GetStatus(ctx, "escola")
	require.NoError(t, err)
	require.Equal(t, "escola", status.Tenant)

	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
