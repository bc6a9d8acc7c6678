// Package tictactoe models Tic-Tac-Toe as a finite MDP from the point of view
// of the X player, who moves first, against an opponent playing O.
package tictactoe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/zeu5/tictactoe-rl/core"
)

type Mark byte

const (
	Blank Mark = '-'
	X     Mark = 'X'
	O     Mark = 'O'
)

func (m Mark) Other() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	}
	return Blank
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Move places the mark of the side to move on a cell, numbered 0-8 row by row
type Move struct {
	Cell int
}

var _ core.Action = Move{}

func (m Move) Hash() string {
	return strconv.Itoa(m.Cell)
}

func (m Move) String() string {
	return fmt.Sprintf("(%d,%d)", m.Cell/3, m.Cell%3)
}

// Game is an immutable board position together with the side to move
type Game struct {
	cells [9]Mark
	turn  Mark
}

var _ core.State = Game{}

// NewGame returns the empty board with X to move
func NewGame() Game {
	g := Game{turn: X}
	for i := range g.cells {
		g.cells[i] = Blank
	}
	return g
}

// ParseGame reads a game from its hash: nine cells followed by the side to
// move, e.g. "X-O------X".
func ParseGame(hash string) (Game, error) {
	if len(hash) != 10 {
		return Game{}, errors.Errorf("invalid game %q", hash)
	}
	g := Game{turn: Mark(hash[9])}
	if g.turn != X && g.turn != O {
		return Game{}, errors.Errorf("invalid side to move in %q", hash)
	}
	for i := 0; i < 9; i++ {
		m := Mark(hash[i])
		if m != X && m != O && m != Blank {
			return Game{}, errors.Errorf("invalid cell %d in %q", i, hash)
		}
		g.cells[i] = m
	}
	return g, nil
}

func (g Game) Hash() string {
	var b strings.Builder
	b.Grow(10)
	for _, c := range g.cells {
		b.WriteByte(byte(c))
	}
	b.WriteByte(byte(g.turn))
	return b.String()
}

func (g Game) Turn() Mark {
	return g.turn
}

func (g Game) Cell(i int) Mark {
	return g.cells[i]
}

// Winner returns the mark owning a full line, or Blank
func (g Game) Winner() Mark {
	for _, l := range lines {
		c := g.cells[l[0]]
		if c != Blank && c == g.cells[l[1]] && c == g.cells[l[2]] {
			return c
		}
	}
	return Blank
}

func (g Game) full() bool {
	for _, c := range g.cells {
		if c == Blank {
			return false
		}
	}
	return true
}

// IsTerminal is true once a player has won or the board is full
func (g Game) IsTerminal() bool {
	return g.Winner() != Blank || g.full()
}

// IsDraw is true for a full board without a winner
func (g Game) IsDraw() bool {
	return g.Winner() == Blank && g.full()
}

// Moves returns the legal moves in ascending cell order. Terminal games have
// none.
func (g Game) Moves() []Move {
	if g.IsTerminal() {
		return nil
	}
	moves := make([]Move, 0, 9)
	for i, c := range g.cells {
		if c == Blank {
			moves = append(moves, Move{Cell: i})
		}
	}
	return moves
}

func (g Game) IsLegal(m Move) bool {
	return m.Cell >= 0 && m.Cell < 9 && g.cells[m.Cell] == Blank && !g.IsTerminal()
}

// Play returns the game after the side to move plays m
func (g Game) Play(m Move) (Game, error) {
	if !g.IsLegal(m) {
		return g, errors.Wrapf(core.ErrIllegalMove, "move %s in game %s", m, g.Hash())
	}
	next := g
	next.cells[m.Cell] = g.turn
	next.turn = g.turn.Other()
	return next, nil
}

// Mirror swaps the marks of both players, including the side to move
func (g Game) Mirror() Game {
	out := g
	for i, c := range g.cells {
		out.cells[i] = c.Other()
	}
	out.turn = g.turn.Other()
	return out
}

func (g Game) String() string {
	var b strings.Builder
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			b.WriteByte(byte(g.cells[3*r+c]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
