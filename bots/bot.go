// bot.go
package bots

import "github.com/notnil/chess"

// ChessBot is what the game loops talk to. BestMove returns nil when the
// game has no legal move left.
type ChessBot interface {
	BestMove(game *chess.Game) *chess.Move
	Name() string
}

// PositionEvaluator scores a board for one side. Implementations must not
// leave the board changed.
type PositionEvaluator interface {
	SideScore(board *Board, white bool) float64
}
