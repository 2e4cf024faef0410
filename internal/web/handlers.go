package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/codex-three-mens-morris/internal/app"
	"github.com/jaminalder/codex-three-mens-morris/internal/domain"
	"github.com/rs/zerolog"
)

type handlers struct {
	svc *app.Service
	tpl *templates
	log zerolog.Logger
}

func (h *handlers) renderBoard(gs app.Session, errMsg string) []byte {
	return renderTemplate(h.tpl.board, "", newBoardView(gs, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.index, "", nil))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	first := domain.Red
	if v := r.Form.Get("first"); v != "" {
		side, err := domain.ParseSide(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		first = side
	}
	red, err := domain.ParsePlayerType(r.Form.Get("red"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	blue, err := domain.ParsePlayerType(r.Form.Get("blue"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	gs, err := h.svc.CreateGame(first, domain.Players{Red: red, Blue: blue})
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := struct {
		ID    string
		Board boardView
	}{ID: gs.ID, Board: newBoardView(*gs, "")}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	// Render page with embedded board container
	_, _ = w.Write(renderTemplate(h.tpl.game, "", data))
}

func (h *handlers) click(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	node, err := strconv.Atoi(r.Form.Get("node"))
	if err != nil {
		node = domain.NoNode
	}
	gs, err := h.svc.Click(id, node)
	h.writeBoard(w, r, id, gs, err)
}

func (h *handlers) undo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, err := h.svc.Undo(id)
	h.writeBoard(w, r, id, gs, err)
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, err := h.svc.Reset(id)
	h.writeBoard(w, r, id, gs, err)
}

// writeBoard renders the board fragment, falling back to the stored state
// with an inline message when the action failed.
func (h *handlers) writeBoard(w http.ResponseWriter, r *http.Request, id string, gs *app.Session, err error) {
	var errMsg string
	if err != nil {
		if gs == nil {
			if g, ok := h.svc.Get(id); ok {
				gs = g
			}
		}
		errMsg = userMessage(err)
	}
	if gs == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*gs, errMsg))
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrComputerTurn):
		return "Wait for the computer"
	case errors.Is(err, app.ErrNoSelection):
		return "Select one of your pieces first"
	case errors.Is(err, domain.ErrOccupied):
		return "Node is occupied"
	case errors.Is(err, domain.ErrOutOfBounds):
		return "Out of bounds"
	case errors.Is(err, domain.ErrGameOver):
		return "Game is over"
	case errors.Is(err, domain.ErrNotYourPiece):
		return "That is not your piece"
	case errors.Is(err, domain.ErrNotAdjacent):
		return "Pieces move along a line to a neighbouring node"
	case errors.Is(err, domain.ErrNoPiecesLeft):
		return "No pieces left to place"
	case errors.Is(err, domain.ErrNothingToUndo):
		return "Nothing to undo"
	default:
		return "Invalid move"
	}
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()
	// heartbeat ticker
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	// Initial flush of headers
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case gs, ok := <-ch:
			if !ok {
				return
			}
			// Emit board event; data lines cannot carry raw newlines
			_, _ = fmt.Fprintf(w, "event: board\n")
			for _, line := range bytes.Split(bytes.TrimSpace(h.renderBoard(gs, "")), []byte("\n")) {
				_, _ = fmt.Fprintf(w, "data: %s\n", line)
			}
			_, _ = io.WriteString(w, "\n")
			flusher.Flush()
		}
	}
}
