package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/oshokin/panic-alert/internal/api/view"
	"github.com/oshokin/panic-alert/internal/logger"
)

// watchWriteTimeout bounds a single websocket write.
const watchWriteTimeout = 5 * time.Second

// watch upgrades to a websocket and pushes a status snapshot now and after every change of the tenant.
func (h *handlers) watch(w http.ResponseWriter, r *http.Request) {
	ref := tenantRef(r, "")

	// Subscribe before the first snapshot so no change falls in between.
	events := h.deps.Broker.Subscribe(h.deps.Service.TenantID(ref))
	defer h.deps.Broker.Unsubscribe(events)

	// Resolve before upgrading so tenant errors are plain HTTP responses.
	first, err := h.deps.Service.GetStatus(r.Context(), ref)
	if err != nil {
		writeDomainError(r.Context(), w, err)

		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.WarnKV(r.Context(), "Websocket accept failed", "error", err)

		return
	}

	defer func() {
		_ = conn.CloseNow()
	}()

	// Watchers only listen; CloseRead cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	logger.DebugKV(ctx, "Watcher connected", "tenant", first.TenantID)

	if err = writeSnapshot(ctx, conn, view.NewStatus(first)); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.DebugKV(ctx, "Watcher disconnected", "tenant", first.TenantID)

			return
		case _, ok := <-events:
			if !ok {
				return
			}

			snapshot, err := h.deps.Service.GetStatus(ctx, first.TenantID)
			if err != nil {
				_ = conn.Close(websocket.StatusInternalError, "status unavailable")

				return
			}

			if err = writeSnapshot(ctx, conn, view.NewStatus(snapshot)); err != nil {
				return
			}
		}
	}
}

// writeSnapshot sends one status message.
func writeSnapshot(ctx context.Context, conn *websocket.Conn, status view.Status) error {
	writeCtx, cancel := context.WithTimeout(ctx, watchWriteTimeout)
	defer cancel()

	err := wsjson.Write(writeCtx, conn, status)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.DebugKV(ctx, "Websocket write failed", "error", err)
	}

	return err
}
