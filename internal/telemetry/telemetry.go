// Package telemetry bridges chassis snapshots and events out to any
// number of WebSocket-connected dashboards. It is read-only: no
// message from a client is ever fed back into chassis control.
package telemetry

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autolaborcenter/pm1-driver/internal/chassis"
)

// Frame is the JSON structure broadcast to every connected client.
type Frame struct {
	Snapshot chassis.Snapshot `json:"snapshot"`
	Event    string           `json:"event,omitempty"`
	Stamp    int64            `json:"stamp"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Bridge owns the WebSocket upgrade endpoint and the set of connected
// clients.
type Bridge struct {
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*wsClient]struct{}
}

// New constructs a Bridge. CheckOrigin always allows, matching the
// teacher's local-network dashboard assumption.
func New() *Bridge {
	return &Bridge{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the connection and starts its reader/writer
// goroutines. Incoming client messages are drained and discarded —
// this bridge is telemetry-out only.
func (b *Bridge) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[telemetry] upgrade error: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 64)}

	b.clientsMu.Lock()
	b.clients[client] = struct{}{}
	b.clientsMu.Unlock()
	log.Printf("[telemetry] client connected (%d total)", len(b.clients))

	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	go func() {
		defer func() {
			b.clientsMu.Lock()
			delete(b.clients, client)
			b.clientsMu.Unlock()
			close(client.send)
			log.Printf("[telemetry] client disconnected (%d total)", len(b.clients))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends snap (plus an optional event label) to every
// connected client. Slow clients are dropped from this frame rather
// than blocking the broadcaster.
func (b *Bridge) Broadcast(snap chassis.Snapshot, eventLabel string) {
	data, err := json.Marshal(Frame{Snapshot: snap, Event: eventLabel, Stamp: time.Now().UnixMilli()})
	if err != nil {
		return
	}

	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	for client := range b.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

// EventLabel maps a chassis.Event to the short string recorded in
// Frame.Event, or "" for snapshot-only broadcasts.
func EventLabel(ev chassis.Event) string {
	switch ev.(type) {
	case chassis.Battery:
		return "battery"
	case chassis.PowerSwitch:
		return "power_switch"
	case chassis.Wheels:
		return "wheels"
	case chassis.Physical:
		return "physical"
	default:
		return ""
	}
}
