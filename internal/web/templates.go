package web

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/jaminalder/codex-three-mens-morris/internal/app"
	"github.com/jaminalder/codex-three-mens-morris/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"add": func(a, b int) int { return a + b },
		"mul": func(a, b int) int { return a * b },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Three Men's Morris</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.row{display:flex}
.row form{margin:2px}
.row button{width:64px;height:64px;font-size:28px}
.red{color:#c0392b}.blue{color:#2e61c0}
.selected button{outline:3px solid #f1c40f}
.target button{background:#e8f6e8}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(indexTemplate))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>Three Men's Morris</h1>
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div hx-sse="swap:board">{{template "board" .Board}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const indexTemplate = `<h1>Three Men's Morris</h1>
<form action="/game" method="post">
  <label>Red <select name="red"><option value="human">human</option><option value="computer">computer</option></select></label>
  <label>Blue <select name="blue"><option value="human">human</option><option value="computer" selected>computer</option></select></label>
  <label>First <select name="first"><option value="red">red</option><option value="blue">blue</option></select></label>
  <button>New game</button>
</form>`

const boardTemplate = `
<div id="board">
  <p class="status">{{.Status}}</p>
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  {{range $r := iter 3}}
  <div class="row">
    {{range $c := iter 3}}
      {{$cell := index $.Cells (add (mul $r 3) $c)}}
      <form class="{{$cell.Class}}" hx-post="/game/{{$.ID}}/click" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="node" value="{{$cell.Node}}">
        <button type="submit" class="{{$cell.Side}}"{{if $.Locked}} disabled{{end}}>{{$cell.Symbol}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
  <form hx-post="/game/{{.ID}}/undo" hx-target="#board" hx-swap="outerHTML" method="post"><button>Undo</button></form>
  <form hx-post="/game/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML" method="post"><button>Reset</button></form>
</div>
`

type cellView struct {
	Node   int
	Side   string
	Symbol string
	Class  string
}

type boardView struct {
	ID     string
	Cells  []cellView
	Status string
	Error  string
	Locked bool
}

func newBoardView(gs app.Session, errMsg string) boardView {
	g := gs.Game
	targets := map[int]bool{}
	if g.Selected != domain.NoNode {
		for _, n := range domain.ValidMovesFrom(g, g.Selected) {
			targets[n] = true
		}
	}
	v := boardView{
		ID:     gs.ID,
		Cells:  make([]cellView, domain.Nodes),
		Status: statusLine(gs),
		Error:  errMsg,
		Locked: g.Over() || g.Players.Of(g.Current) == domain.Computer,
	}
	for n, c := range g.Board {
		cell := cellView{Node: n}
		if c != domain.Empty {
			cell.Side = c.String()
			cell.Symbol = "●"
		}
		switch {
		case n == g.Selected:
			cell.Class = "selected"
		case targets[n]:
			cell.Class = "target"
		}
		v.Cells[n] = cell
	}
	return v
}

func statusLine(gs app.Session) string {
	g := gs.Game
	switch {
	case g.Over() && g.Winner != domain.Empty:
		return fmt.Sprintf("%s wins", g.Winner)
	case g.Over():
		return "Game over: no winner"
	case gs.Thinking:
		return fmt.Sprintf("Computer (%s) is thinking", g.Current)
	case g.Phase == domain.Placement:
		return fmt.Sprintf("%s to place (%d left)", g.Current, domain.PiecesPerSide-g.Placed(g.Current))
	default:
		return fmt.Sprintf("%s to move", g.Current)
	}
}
