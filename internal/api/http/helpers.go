package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/oshokin/panic-alert/internal/api/view"
	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/logger"
)

const (
	// maxBodyBytes caps request bodies.
	maxBodyBytes = 64 << 10
	// tenantHeader carries the tenant when the query and body do not.
	tenantHeader = "X-Tenant-ID"
)

var errBodyTooLarge = errors.New("request body too large")

// readBody decodes a JSON body into dst, or hands form fields to fromForm.
func readBody(w http.ResponseWriter, r *http.Request, dst any, fromForm func(get func(string) string)) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) //nolint:errcheck // Empty means JSON.

	var err error

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err = r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			break
		}

		err = nil

		fromForm(r.FormValue)
	default:
		if r.ContentLength == 0 {
			return true
		}

		if err = json.NewDecoder(r.Body).Decode(dst); errors.Is(err, io.EOF) {
			err = nil
		}
	}

	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())

			return false
		}

		writeError(w, http.StatusBadRequest, "invalid request body")

		return false
	}

	return true
}

// tenantRef picks the tenant from the body, the query or the X-Tenant-ID header, in that order.
func tenantRef(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}

	if q := r.URL.Query().Get("tenant"); q != "" {
		return q
	}

	return r.Header.Get(tenantHeader)
}

// clientIP returns the connection address. Proxy headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// writeJSON encodes data with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.ErrorKV(context.Background(), "Failed to write JSON response", "error", err)
	}
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, view.ErrorResponse{Error: message})
}

// writeDomainError maps coordinator errors to HTTP responses.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		inputErr *coordinator.InputError
		rateErr  *coordinator.RateLimitError
	)

	switch {
	case errors.As(err, &rateErr):
		seconds := retryAfterSeconds(rateErr.RetryAfter)
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeJSON(w, http.StatusTooManyRequests, view.ErrorResponse{
			Error:             "too many alerts from this address",
			RetryAfterSeconds: seconds,
		})
	case errors.As(err, &inputErr):
		writeJSON(w, http.StatusBadRequest, view.ErrorResponse{
			Error: inputErr.Error(),
			Field: inputErr.Field,
		})
	case errors.Is(err, coordinator.ErrInvalidCommand):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coordinator.ErrTenantResolution):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.ErrorKV(ctx, "Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// retryAfterSeconds rounds a delay up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)

	return max(seconds, 1)
}
