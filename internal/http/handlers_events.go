package httpx

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/FordLabs/PeopleMover/internal/ws"
)

// handleEvents streams space mutations over SSE until the client goes away.
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) {
	if r.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	spaceUUID := mux.Vars(req)["uuid"]
	client, err := ws.NewSSEClient(w, r.logger)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	r.hub.Register(spaceUUID, client)
	closed := r.metrics.streamOpened("sse")
	defer func() {
		r.hub.Unregister(spaceUUID, client)
		client.Close()
		closed()
	}()
	if err := client.Heartbeat(); err != nil {
		return
	}

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-client.Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

// handleEventsWS upgrades to a websocket that receives the same events.
func (r *Router) handleEventsWS(w http.ResponseWriter, req *http.Request) {
	if r.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	spaceUUID := mux.Vars(req)["uuid"]
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err, "space_uuid", spaceUUID)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(spaceUUID, client)
	closed := r.metrics.streamOpened("websocket")
	go func() {
		defer func() {
			r.hub.Unregister(spaceUUID, client)
			client.Close()
			closed()
		}()
		stop := make(chan struct{})
		go keepAlive(client, stop)
		client.Wait()
		close(stop)
	}()
}

func keepAlive(client *ws.Client, stop <-chan struct{}) {
	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return
			}
		}
	}
}
