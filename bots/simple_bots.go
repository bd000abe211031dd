package bots

import (
	"github.com/notnil/chess"
	"lukechampine.com/frand"
)

// PickBot plays the legal move chosen by pick, which gets the number of
// legal moves and returns an index. It never looks at the position.
type PickBot struct {
	name string
	pick func(n int) int
}

// NewNewbornBot always plays the first move the generator produces. It is
// the baseline opponent in arena matches.
func NewNewbornBot() *PickBot {
	return &PickBot{name: "Newborn", pick: func(int) int { return 0 }}
}

// NewRandomBot plays a uniformly random legal move.
func NewRandomBot() *PickBot {
	return &PickBot{name: "Random Bot", pick: frand.Intn}
}

func (b *PickBot) BestMove(game *chess.Game) *chess.Move {
	if game == nil {
		return nil
	}
	moves := game.ValidMoves()
	if len(moves) == 0 {
		return nil
	}
	return moves[b.pick(len(moves))]
}

func (b *PickBot) Name() string {
	return b.name
}
