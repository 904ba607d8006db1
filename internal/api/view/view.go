package view

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/panic-alert/internal/clock"
	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/domain/alert"
)

// Siren is the wire form of the siren state.
type Siren struct {
	Active            bool   `json:"active"`
	Muted             bool   `json:"muted"`
	Mode              string `json:"mode"`
	Sounding          bool   `json:"sounding"`
	LastUpdate        string `json:"last_update,omitempty"`
	LastUpdateDisplay string `json:"last_update_display,omitempty"`
}

// Alert is the wire form of an alert record. The submitter address is not exposed.
type Alert struct {
	ID               int64  `json:"id"`
	Tenant           string `json:"tenant"`
	Teacher          string `json:"teacher"`
	Room             string `json:"room"`
	Description      string `json:"description"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
	CreatedAtDisplay string `json:"created_at_display"`
}

// Status is the wire form of a tenant snapshot.
type Status struct {
	Tenant       string  `json:"tenant"`
	Siren        Siren   `json:"siren"`
	TotalAlerts  int     `json:"total_alerts"`
	ActiveAlerts int     `json:"active_alerts"`
	Alerts       []Alert `json:"alerts"`
	Revision     uint64  `json:"revision"`
	ServerTime   string  `json:"server_time"`
}

// SubmitRequest is an alert submission.
type SubmitRequest struct {
	Tenant      string `json:"tenant"`
	Teacher     string `json:"teacher"`
	Room        string `json:"room"`
	Description string `json:"description"`
}

// SubmitResponse acknowledges an accepted alert.
type SubmitResponse struct {
	OK         bool   `json:"ok"`
	Alert      Alert  `json:"alert"`
	ServerTime string `json:"server_time"`
}

// SirenRequest carries a console siren command.
type SirenRequest struct {
	Tenant string `json:"tenant"`
	Action string `json:"action"`
}

// SirenResponse returns the siren state after a command.
type SirenResponse struct {
	OK         bool   `json:"ok"`
	Siren      Siren  `json:"siren"`
	ServerTime string `json:"server_time"`
}

// TenantRequest addresses a tenant-wide console operation.
type TenantRequest struct {
	Tenant string `json:"tenant"`
}

// ResolveResponse reports how many alerts were resolved.
type ResolveResponse struct {
	OK         bool   `json:"ok"`
	Resolved   int    `json:"resolved"`
	ServerTime string `json:"server_time"`
}

// OKResponse acknowledges an operation without a payload.
type OKResponse struct {
	OK         bool   `json:"ok"`
	ServerTime string `json:"server_time"`
}

// PlayResponse tells a display whether to play the siren sound.
type PlayResponse struct {
	Play bool `json:"play"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	OK                bool   `json:"ok"`
	Error             string `json:"error"`
	Field             string `json:"field,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// NewSiren converts the siren state.
func NewSiren(s alert.SirenState) Siren {
	return Siren{
		Active:            s.Active,
		Muted:             s.Muted,
		Mode:              string(s.Mode()),
		Sounding:          s.Sounding(),
		LastUpdate:        clock.Sortable(s.LastUpdate),
		LastUpdateDisplay: clock.Display(s.LastUpdate),
	}
}

// NewAlert converts an alert record.
func NewAlert(r *alert.Record) Alert {
	return Alert{
		ID:               r.ID,
		Tenant:           r.TenantID,
		Teacher:          r.Teacher,
		Room:             r.Room,
		Description:      r.Description,
		Status:           string(r.Status),
		CreatedAt:        clock.Sortable(r.CreatedAt),
		CreatedAtDisplay: clock.Display(r.CreatedAt),
	}
}

// NewStatus converts a tenant snapshot.
func NewStatus(s *coordinator.Status) Status {
	alerts := make([]Alert, 0, len(s.Alerts))
	for i := range s.Alerts {
		alerts = append(alerts, NewAlert(&s.Alerts[i]))
	}

	return Status{
		Tenant:       s.TenantID,
		Siren:        NewSiren(s.Siren),
		TotalAlerts:  s.TotalAlerts,
		ActiveAlerts: s.ActiveAlerts,
		Alerts:       alerts,
		Revision:     s.Revision,
		ServerTime:   ServerTime(s.ServerTime),
	}
}

// ServerTime formats a server timestamp.
func ServerTime(t time.Time) string {
	return clock.Sortable(t)
}

// ToStruct converts a wire value into a protobuf Struct with the same JSON field names.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}

	out := new(structpb.Struct)
	if err = protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("convert %T to struct: %w", v, err)
	}

	return out, nil
}

// FromStruct decodes a protobuf Struct into a wire value.
// A nil Struct leaves v untouched.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}

	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("convert struct: %w", err)
	}

	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}

	return nil
}
