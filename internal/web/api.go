package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/codex-three-mens-morris/internal/app"
	"github.com/jaminalder/codex-three-mens-morris/internal/domain"
)

type moveDTO struct {
	Side string `json:"side,omitempty"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

type stateDTO struct {
	ID       string            `json:"id"`
	Board    [9]string         `json:"board"`
	Current  string            `json:"current"`
	Phase    string            `json:"phase"`
	Pieces   map[string]int    `json:"pieces"`
	Selected int               `json:"selected"`
	Targets  []int             `json:"targets"`
	Legal    []moveDTO         `json:"legal"`
	Winner   string            `json:"winner,omitempty"`
	Mode     string            `json:"mode"`
	Players  map[string]string `json:"players"`
	Thinking bool              `json:"thinking"`
	History  []moveDTO         `json:"history"`
}

func toMoveDTO(side domain.Cell, m domain.Move) moveDTO {
	dto := moveDTO{From: m.From, To: m.To}
	if side != domain.Empty {
		dto.Side = side.String()
	}
	return dto
}

var errMissingTo = errors.New(`move needs a "to" node`)

// moveRequest is the body of POST /move and of websocket "move" messages.
// An absent or negative "from" is a placement.
type moveRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

func (m moveRequest) move() (domain.Move, error) {
	if m.To == nil {
		return domain.Move{}, errMissingTo
	}
	if m.From == nil || *m.From < 0 {
		return domain.PlaceAt(*m.To), nil
	}
	return domain.Step(*m.From, *m.To), nil
}

func decodeMove(data []byte) (domain.Move, error) {
	var req moveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return domain.Move{}, err
	}
	return req.move()
}

func newStateDTO(gs app.Session) stateDTO {
	g := gs.Game
	dto := stateDTO{
		ID:       gs.ID,
		Current:  g.Current.String(),
		Phase:    g.Phase.String(),
		Pieces:   map[string]int{"red": g.Placed(domain.Red), "blue": g.Placed(domain.Blue)},
		Selected: g.Selected,
		Targets:  []int{},
		Legal:    []moveDTO{},
		Mode:     g.Mode().String(),
		Players:  map[string]string{"red": g.Players.Red.String(), "blue": g.Players.Blue.String()},
		Thinking: gs.Thinking,
		History:  make([]moveDTO, 0, len(g.History)),
	}
	for n, c := range g.Board {
		dto.Board[n] = c.String()
	}
	if g.Winner != domain.Empty {
		dto.Winner = g.Winner.String()
	}
	if g.Selected != domain.NoNode {
		dto.Targets = append(dto.Targets, domain.ValidMovesFrom(g, g.Selected)...)
	}
	for _, m := range domain.Legal(g) {
		dto.Legal = append(dto.Legal, toMoveDTO(domain.Empty, m))
	}
	for _, r := range g.History {
		dto.History = append(dto.History, toMoveDTO(r.Side, r.Move))
	}
	return dto
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, app.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newStateDTO(*gs))
}

func (h *handlers) move(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	m, err := req.move()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	gs, err := h.svc.Play(id, m)
	if err != nil {
		h.log.Debug().Err(err).Str("game", id).Msg("move rejected")
		writeJSONError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newStateDTO(*gs))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrComputerTurn), errors.Is(err, domain.ErrGameOver):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
