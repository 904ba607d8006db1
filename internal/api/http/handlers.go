package http

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/oshokin/panic-alert/internal/api/view"
	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/domain/alert"
	"github.com/oshokin/panic-alert/internal/logger"
	"github.com/oshokin/panic-alert/internal/report"
	"github.com/oshokin/panic-alert/internal/repository/school"
)

// schoolRequest is the body of PUT /api/school.
type schoolRequest struct {
	Tenant string `json:"tenant"`
	school.School
}

// healthResponse is the body of /healthz.
type healthResponse struct {
	Status       string     `json:"status"`
	Tenant       string     `json:"tenant"`
	Tenants      int        `json:"tenants"`
	AlertCount   int        `json:"alert_count"`
	ActiveAlerts int        `json:"active_alerts"`
	Siren        view.Siren `json:"siren"`
	ServerTime   string     `json:"server_time"`
}

// tenantEntry is one row of GET /api/tenants.
type tenantEntry struct {
	ID     string `json:"id"`
	School string `json:"school,omitempty"`
}

// now stamps server_time.
func now() string {
	return view.ServerTime(time.Now())
}

// health reports liveness and the counters of one tenant. It never creates the tenant.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ref := tenantRef(r, "")

	resp := healthResponse{
		Status:     "ok",
		Tenant:     h.deps.Service.TenantID(ref),
		Tenants:    len(h.deps.Service.Tenants()),
		ServerTime: now(),
	}

	if status, ok := h.deps.Service.Peek(ref); ok {
		resp.AlertCount = status.TotalAlerts
		resp.ActiveAlerts = status.ActiveAlerts
		resp.Siren = view.NewSiren(status.Siren)
	} else {
		resp.Siren = view.NewSiren(alert.SirenState{})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) submitAlert(w http.ResponseWriter, r *http.Request) {
	var in view.SubmitRequest

	ok := readBody(w, r, &in, func(get func(string) string) {
		in.Tenant = get("tenant")
		in.Teacher = get("teacher")
		in.Room = get("room")
		in.Description = get("description")
	})
	if !ok {
		return
	}

	rec, err := h.deps.Service.SubmitAlert(r.Context(), &coordinator.SubmitRequest{
		Tenant:      tenantRef(r, in.Tenant),
		Teacher:     in.Teacher,
		Room:        in.Room,
		Description: in.Description,
		Source:      clientIP(r),
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusOK, view.SubmitResponse{
		OK:         true,
		Alert:      view.NewAlert(rec),
		ServerTime: now(),
	})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.deps.Service.GetStatus(r.Context(), tenantRef(r, ""))
	if err != nil {
		writeDomainError(r.Context(), w, err)

		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, view.NewStatus(snapshot))
}

// sirenPlay tells a display whether it may play the siren.
func (h *handlers) sirenPlay(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.deps.Service.GetStatus(r.Context(), tenantRef(r, ""))
	if err != nil {
		writeDomainError(r.Context(), w, err)

		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if !snapshot.Siren.Sounding() {
		writeJSON(w, http.StatusForbidden, view.PlayResponse{Play: false})

		return
	}

	writeJSON(w, http.StatusOK, view.PlayResponse{Play: true})
}

func (h *handlers) siren(w http.ResponseWriter, r *http.Request) {
	var in view.SirenRequest

	ok := readBody(w, r, &in, func(get func(string) string) {
		in.Tenant = get("tenant")
		in.Action = get("action")
	})
	if !ok {
		return
	}

	state, err := h.deps.Service.ApplySirenCommand(r.Context(), tenantRef(r, in.Tenant), in.Action)
	if err != nil {
		writeDomainError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusOK, view.SirenResponse{
		OK:         true,
		Siren:      view.NewSiren(state),
		ServerTime: now(),
	})
}

// sirenTest sounds the siren for a drill: unmute, then on.
func (h *handlers) sirenTest(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.readTenant(w, r)
	if !ok {
		return
	}

	var (
		state alert.SirenState
		err   error
	)

	for _, cmd := range []string{string(alert.CommandUnmute), string(alert.CommandOn)} {
		if state, err = h.deps.Service.ApplySirenCommand(r.Context(), ref, cmd); err != nil {
			writeDomainError(r.Context(), w, err)

			return
		}
	}

	logger.InfoKV(r.Context(), "Siren test started", "tenant", h.deps.Service.TenantID(ref))

	writeJSON(w, http.StatusOK, view.SirenResponse{
		OK:         true,
		Siren:      view.NewSiren(state),
		ServerTime: now(),
	})
}

func (h *handlers) resolve(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.readTenant(w, r)
	if !ok {
		return
	}

	resolved, err := h.deps.Service.ResolveNext(r.Context(), ref)
	if err != nil {
		writeDomainError(r.Context(), w, err)

		return
	}

	count := 0
	if resolved {
		count = 1
	}

	writeJSON(w, http.StatusOK, view.ResolveResponse{OK: true, Resolved: count, ServerTime: now()})
}

func (h *handlers) resolveAll(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.readTenant(w, r)
	if !ok {
		return
	}

	resolved, err := h.deps.Service.ResolveAll(r.Context(), ref)
	if err != nil {
		writeDomainError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusOK, view.ResolveResponse{OK: true, Resolved: resolved, ServerTime: now()})
}

func (h *handlers) clear(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.readTenant(w, r)
	if !ok {
		return
	}

	if err := h.deps.Service.ClearTenant(r.Context(), ref); err != nil {
		writeDomainError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusOK, view.OKResponse{OK: true, ServerTime: now()})
}

// tenants lists tenants held in memory and tenants with stored school metadata.
func (h *handlers) tenants(w http.ResponseWriter, r *http.Request) {
	ids := h.deps.Service.Tenants()

	var schools map[string]school.School

	if h.deps.Schools != nil {
		var err error

		if schools, err = h.deps.Schools.List(r.Context()); err != nil {
			writeDomainError(r.Context(), w, err)

			return
		}

		for id := range schools {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}

		slices.Sort(ids)
	}

	entries := make([]tenantEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, tenantEntry{ID: id, School: schools[id].Name})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenants":     ids,
		"schools":     entries,
		"server_time": now(),
	})
}

// report serves a rendered report as a download.
func (h *handlers) report(format report.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := tenantRef(r, "")

		data, err := h.deps.Reports.Generate(r.Context(), ref, format)
		if err != nil {
			writeDomainError(r.Context(), w, err)

			return
		}

		filename := "panic-alert-" + h.deps.Service.TenantID(ref) + "." + string(format)

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.WriteHeader(http.StatusOK)

		if _, err = w.Write(data); err != nil {
			logger.WarnKV(r.Context(), "Report write failed", "error", err)
		}
	}
}

func (h *handlers) getSchool(w http.ResponseWriter, r *http.Request) {
	id := h.deps.Service.TenantID(tenantRef(r, ""))

	info, err := h.deps.Schools.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, school.ErrNotFound) {
			writeError(w, http.StatusNotFound, "school not found")

			return
		}

		writeDomainError(r.Context(), w, err)

		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (h *handlers) putSchool(w http.ResponseWriter, r *http.Request) {
	var in schoolRequest

	ok := readBody(w, r, &in, func(get func(string) string) {
		in.Tenant = get("tenant")
		in.Name = get("name")
		in.Address = get("address")
		in.City = get("city")
		in.Phone = get("phone")
		in.Director = get("director")
	})
	if !ok {
		return
	}

	if in.Name == "" {
		writeJSON(w, http.StatusBadRequest, view.ErrorResponse{Error: "name is required", Field: "name"})

		return
	}

	id := h.deps.Service.TenantID(tenantRef(r, in.Tenant))

	if err := h.deps.Schools.Save(r.Context(), id, &in.School); err != nil {
		writeDomainError(r.Context(), w, err)

		return
	}

	logger.InfoKV(r.Context(), "School metadata updated", "tenant", id)

	writeJSON(w, http.StatusOK, view.OKResponse{OK: true, ServerTime: now()})
}

// readTenant reads an optional {tenant} body for tenant-wide commands.
func (h *handlers) readTenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	var in view.TenantRequest

	ok := readBody(w, r, &in, func(get func(string) string) {
		in.Tenant = get("tenant")
	})

	return tenantRef(r, in.Tenant), ok
}
