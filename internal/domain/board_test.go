package domain

import "testing"

func boardOf(red, blue []int) Board {
	var b Board
	for _, n := range red {
		b[n] = Red
	}
	for _, n := range blue {
		b[n] = Blue
	}
	return b
}

func TestCheckWinnerEveryLine(t *testing.T) {
	for _, side := range []Cell{Red, Blue} {
		for _, ln := range Lines() {
			var b Board
			for _, n := range ln {
				b[n] = side
			}
			if got := CheckWinner(b); got != side {
				t.Fatalf("line %v filled by %v: expected winner %v, got %v", ln, side, side, got)
			}
		}
	}
}

func TestCheckWinnerNone(t *testing.T) {
	cases := []Board{
		{},
		boardOf([]int{0, 1}, []int{2}),
		boardOf([]int{0, 1, 5}, []int{2, 3, 4}),
		boardOf([]int{4, 0, 7}, []int{8, 1, 2}),
	}
	for i, b := range cases {
		if got := CheckWinner(b); got != Empty {
			t.Fatalf("case %d: expected no winner, got %v (board %v)", i, got, b)
		}
	}
}

func TestCheckWinnerIffSomeLineUniform(t *testing.T) {
	// Exhaustive over all 3^9 boards.
	var b Board
	for code := 0; code < 19683; code++ {
		v := code
		for i := range b {
			b[i] = Cell(v % 3)
			v /= 3
		}
		want := Empty
		for _, ln := range lines {
			if b[ln[0]] != Empty && b[ln[0]] == b[ln[1]] && b[ln[1]] == b[ln[2]] {
				want = b[ln[0]]
				break
			}
		}
		if got := CheckWinner(b); got != want {
			t.Fatalf("board %v: expected %v, got %v", b, want, got)
		}
	}
}

func TestAdjacencyIsSymmetric(t *testing.T) {
	for a := 0; a < Nodes; a++ {
		ns := Neighbors(a)
		if a == 4 {
			if len(ns) != 8 {
				t.Fatalf("centre should have 8 neighbours, got %v", ns)
			}
		} else if len(ns) != 3 {
			t.Fatalf("node %d should have 3 neighbours, got %v", a, ns)
		}
		for _, b := range ns {
			if !Adjacent(b, a) {
				t.Fatalf("adjacency not symmetric for %d-%d", a, b)
			}
		}
		if Adjacent(a, a) {
			t.Fatalf("node %d adjacent to itself", a)
		}
	}
	if Neighbors(-1) != nil || Neighbors(9) != nil {
		t.Fatalf("expected nil neighbours off the board")
	}
}

func TestNeighborsReturnsCopy(t *testing.T) {
	ns := Neighbors(0)
	ns[0] = 8
	if got := Neighbors(0); got[0] != 1 {
		t.Fatalf("adjacency table mutated through Neighbors: %v", got)
	}
}
