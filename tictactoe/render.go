package tictactoe

import (
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"
	"github.com/zeu5/tictactoe-rl/core"
)

// Render prints the board. Cells are colored unless colors is false; a
// highlighted move, if any, is drawn in green.
func Render(w io.Writer, g Game, highlight *Move, colors bool) {
	au := aurora.NewAurora(colors)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			i := 3*r + c
			var cell aurora.Value
			switch {
			case highlight != nil && highlight.Cell == i:
				cell = au.Green("*")
			case g.Cell(i) == X:
				cell = au.Red("X")
			case g.Cell(i) == O:
				cell = au.Blue("O")
			default:
				cell = au.Faint(".")
			}
			fmt.Fprintf(w, " %s ", cell)
			if c < 2 {
				fmt.Fprint(w, au.White("|"))
			}
		}
		fmt.Fprintln(w)
	}
}

// RenderPolicy prints the board with the policy's move for it highlighted
func RenderPolicy(w io.Writer, g Game, policy *core.Policy, colors bool) {
	a, ok := policy.ActionFor(g)
	if !ok {
		Render(w, g, nil, colors)
		fmt.Fprintln(w, "no action")
		return
	}
	mv := a.(Move)
	Render(w, g, &mv, colors)
	fmt.Fprintf(w, "play %s\n", mv)
}
