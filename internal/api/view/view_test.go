package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/domain/alert"
)

// TestNewStatus converts a snapshot and keeps the alert order.
func TestNewStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 4, 8, 30, 0, 0, time.UTC)
	status := NewStatus(&coordinator.Status{
		TenantID:     "escola-1",
		Siren:        alert.SirenState{Active: true, LastUpdate: now},
		TotalAlerts:  2,
		ActiveAlerts: 1,
		Revision:     7,
		ServerTime:   now,
		Alerts: []alert.Record{
			{ID: 2, TenantID: "escola-1", Teacher: "Ana", Room: "1A", CreatedAt: now, Status: alert.StatusActive, Source: "10.0.0.9"},
			{ID: 1, TenantID: "escola-1", Teacher: "Bia", Room: "2B", CreatedAt: now, Status: alert.StatusResolved},
		},
	})

	require.Equal(t, "escola-1", status.Tenant)
	require.Equal(t, "on", status.Siren.Mode)
	require.True(t, status.Siren.Sounding)
	require.Equal(t, "04/03/2024 08:30:00", status.Siren.LastUpdateDisplay)
	require.Len(t, status.Alerts, 2)
	require.Equal(t, int64(2), status.Alerts[0].ID)
	require.Equal(t, "resolved", status.Alerts[1].Status)
	require.Equal(t, "2024-03-04T08:30:00Z", status.ServerTime)
}

// TestNewSiren_NeverUpdated omits the timestamp.
func TestNewSiren_NeverUpdated(t *testing.T) {
	t.Parallel()

	s := NewSiren(alert.SirenState{})
	require.Equal(t, "off", s.Mode)
	require.Empty(t, s.LastUpdate)
	require.Empty(t, s.LastUpdateDisplay)
}

// TestStructConversion carries field names through protobuf Struct values.
func TestStructConversion(t *testing.T) {
	t.Parallel()

	in := SubmitResponse{
		OK:         true,
		Alert:      Alert{ID: 42, Tenant: "default", Teacher: "Ana", Room: "Lab", Status: "active"},
		ServerTime: "2024-03-04T08:30:00Z",
	}

	s, err := ToStruct(in)
	require.NoError(t, err)
	require.Equal(t, "Ana", s.GetFields()["alert"].GetStructValue().GetFields()["teacher"].GetStringValue())

	var out SubmitResponse
	require.NoError(t, FromStruct(s, &out))
	require.Equal(t, in, out)

	require.NoError(t, FromStruct(nil, &out))
}
