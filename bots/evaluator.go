package bots

import (
	"fmt"
	"math"

	"github.com/notnil/chess"
	"gonum.org/v1/gonum/stat"
)

const (
	// PositionWeight scales the mean positional contribution of a side's pieces.
	PositionWeight = 50
	// MaxKingDistance is the length of the board diagonal, sqrt(7*7 + 7*7).
	MaxKingDistance = 9.899
)

// MaterialTable maps piece types to their material value. Kings are never scored.
type MaterialTable map[chess.PieceType]int

// DefaultMaterial is the material table used unless a bot is configured otherwise.
func DefaultMaterial() MaterialTable {
	return MaterialTable{
		chess.Pawn:   100,
		chess.Knight: 305,
		chess.Bishop: 333,
		chess.Rook:   563,
		chess.Queen:  950,
	}
}

// scoredTypes fixes the order in which piece types are summed.
var scoredTypes = [...]chess.PieceType{chess.Pawn, chess.Knight, chess.Bishop, chess.Rook, chess.Queen}

// DefaultEvaluator scores one side by material plus the average of a per
// piece positional term: how far the piece stands toward the enemy back
// rank and how close it is to the enemy king.
type DefaultEvaluator struct {
	values [len(scoredTypes)]int
	// SmoothAdvance divides the advance term as a float. The default integer
	// division only rewards pieces on the last rank.
	SmoothAdvance bool
}

func NewDefaultEvaluator() DefaultEvaluator {
	e, _ := NewEvaluator(DefaultMaterial(), false)
	return e
}

// NewEvaluator copies the table, so later changes to it don't reach the evaluator.
func NewEvaluator(table MaterialTable, smoothAdvance bool) (DefaultEvaluator, error) {
	e := DefaultEvaluator{SmoothAdvance: smoothAdvance}
	for i, pt := range scoredTypes {
		v, ok := table[pt]
		if !ok {
			return DefaultEvaluator{}, fmt.Errorf("material table has no value for %v", pt)
		}
		e.values[i] = v
	}
	return e, nil
}

func (e DefaultEvaluator) SideScore(board *Board, white bool) float64 {
	opponentKing := board.KingSquare(!white)

	material := 0
	var contributions []float64
	for i, pt := range scoredTypes {
		squares := board.PieceList(pt, white)
		material += e.values[i] * len(squares)

		for _, sq := range squares {
			contributions = append(contributions, e.advanceScore(sq, white)+kingProximity(sq, opponentKing))
		}
	}

	positionScore := 0.0
	if len(contributions) > 0 {
		positionScore = stat.Mean(contributions, nil) * PositionWeight
	}
	return float64(material) + positionScore
}

func (e DefaultEvaluator) advanceScore(sq chess.Square, white bool) float64 {
	advance := int(sq.Rank())
	if !white {
		advance = 7 - advance
	}
	if e.SmoothAdvance {
		return float64(advance) / 7
	}
	return float64(advance / 7)
}

func kingProximity(sq, king chess.Square) float64 {
	if king == chess.NoSquare {
		return 0
	}
	df := float64(int(sq.File()) - int(king.File()))
	dr := float64(int(sq.Rank()) - int(king.Rank()))
	return 1 - math.Hypot(df, dr)/MaxKingDistance
}

// BoardScore is white's (or black's) advantage over the other side.
func BoardScore(e PositionEvaluator, board *Board, white bool) float64 {
	return e.SideScore(board, white) - e.SideScore(board, !white)
}
