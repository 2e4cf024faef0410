package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/jaminalder/codex-three-mens-morris/internal/app"
)

var wsIdlePingInterval = 30 * time.Second

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func stateMessage(gs app.Session) []byte {
	return mustMarshal(wsMessage{Type: "state", Payload: mustMarshal(newStateDTO(gs))})
}

func errorMessage(err error) []byte {
	return mustMarshal(wsMessage{Type: "error", Payload: mustMarshal(map[string]string{"error": err.Error()})})
}

// writeWSWithHeartbeat drains send onto the connection and pings when idle.
func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}

// ws streams JSON snapshots of one game. Clients may send
// {"type":"move","payload":{"from":-1,"to":4}} or {"type":"request_state"}.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Str("game", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		return
	}
	defer unsub()

	send := make(chan []byte, 16)
	replies := make(chan []byte, 4)
	send <- stateMessage(*gs)

	// pump: merges snapshots and replies into send, closes it when done.
	go func() {
		defer close(send)
		for {
			var msg []byte
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				msg = stateMessage(snap)
			case msg = <-replies:
			}
			select {
			case send <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		if err := writeWSWithHeartbeat(conn, send); err != nil {
			h.log.Debug().Err(err).Str("game", id).Msg("websocket write failed")
		}
		cancel()
		_ = conn.Close()
	}()

	h.log.Debug().Str("game", id).Msg("websocket connected")
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		var reply []byte
		switch msg.Type {
		case "request_state":
			if cur, ok := h.svc.Get(id); ok {
				reply = stateMessage(*cur)
			}
		case "move":
			m, err := decodeMove(msg.Payload)
			if err != nil {
				reply = errorMessage(err)
				break
			}
			if _, err := h.svc.Play(id, m); err != nil {
				reply = errorMessage(err)
			}
		}
		if reply == nil {
			continue
		}
		select {
		case replies <- reply:
		case <-ctx.Done():
		}
	}
	cancel()
	<-writeDone
	h.log.Debug().Str("game", id).Msg("websocket closed")
}
