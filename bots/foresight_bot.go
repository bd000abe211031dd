package bots

import (
	"math"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ForesightBot looks two plies ahead: for each of its moves it assumes the
// opponent answers with its greedy best reply and keeps the move that leaves
// it best off. Before searching it checks whether the opponent threatens a
// capture right now and, if so, moves the threatened piece away.
//
// A ForesightBot has no per-search state and may be shared between games.
type ForesightBot struct {
	Evaluator PositionEvaluator
	// Budget is passed to Think by BestMove.
	Budget time.Duration
	// ThreatCheck enables the null-move threat probe before the search.
	ThreatCheck bool
	// StrictDeadline stops adding candidates to the search once Budget is spent.
	StrictDeadline bool
}

// rebuke is the opponent's best reply to one candidate move.
type rebuke struct {
	reply *chess.Move
	ok    bool
}

func NewForesightBot(budget time.Duration) *ForesightBot {
	return &ForesightBot{
		Evaluator:   NewDefaultEvaluator(),
		Budget:      budget,
		ThreatCheck: true,
	}
}

func (b *ForesightBot) Name() string {
	return "Foresight"
}

func (b *ForesightBot) BestMove(game *chess.Game) *chess.Move {
	if game == nil || len(game.ValidMoves()) == 0 {
		return nil
	}
	return b.Think(NewBoard(game.Position()), b.Budget)
}

// Think picks a move for the side to move. The board is left as it was
// found. It panics if the position has no legal moves.
func (b *ForesightBot) Think(board *Board, budget time.Duration) *chess.Move {
	if len(board.LegalMoves()) == 0 {
		panic("bots: Think called on a position without legal moves")
	}
	start := time.Now()

	if b.ThreatCheck {
		if move, ok := b.threatResponse(board); ok {
			log.Debug().Str("move", move.String()).Dur("elapsed", time.Since(start)).Msg("moving threatened piece")
			return move
		}
	}

	var deadline time.Time
	if b.StrictDeadline {
		deadline = start.Add(budget)
	}
	move := b.foresight(board, deadline)
	log.Debug().Str("move", move.String()).Dur("elapsed", time.Since(start)).Dur("budget", budget).Msg("foresight move")
	return move
}

// threatResponse passes the turn to see what the opponent would do. If its
// best reply captures, the best move of the attacked piece is returned.
func (b *ForesightBot) threatResponse(board *Board) (*chess.Move, bool) {
	white := board.WhiteToMove()
	if !board.TrySkipTurn() {
		return nil, false
	}
	threat, ok := b.BestReply(board)
	captures := ok && board.CaptureType(threat) != chess.NoPieceType
	board.UndoSkipTurn()
	if !captures {
		return nil, false
	}

	target := threat.S2()
	log.Debug().Str("threat", threat.String()).Str("piece", board.PieceAt(target).String()).Msg("capture threatened")
	escapes := lo.Filter(board.LegalMoves(), func(m *chess.Move, _ int) bool {
		return m.S1() == target
	})
	return b.bestByScore(board, escapes, white)
}

// BestReply is the greedy one-ply choice of the side to move: the legal move
// after which that side's BoardScore is highest. Ties go to the move
// generated first. ok is false when there is no legal move.
func (b *ForesightBot) BestReply(board *Board) (*chess.Move, bool) {
	return b.bestByScore(board, board.LegalMoves(), board.WhiteToMove())
}

func (b *ForesightBot) bestByScore(board *Board, moves []*chess.Move, white bool) (*chess.Move, bool) {
	var best *chess.Move
	bestScore := math.Inf(-1)
	for _, move := range moves {
		unapply := board.Apply(move)
		score := BoardScore(b.Evaluator, board, white)
		unapply()

		if best == nil || score > bestScore {
			best, bestScore = move, score
		}
	}
	return best, best != nil
}

// BestMoveWithForesight runs the two-ply search without the threat probe.
// It panics if the position has no legal moves.
func (b *ForesightBot) BestMoveWithForesight(board *Board) *chess.Move {
	return b.foresight(board, time.Time{})
}

// foresight builds the rebuke table for every candidate, then scores each
// candidate by the position after the opponent's rebuke. A candidate the
// opponent cannot answer is played at once; that covers mate but also
// stalemate, which is not told apart.
func (b *ForesightBot) foresight(board *Board, deadline time.Time) *chess.Move {
	moves := board.LegalMoves()
	if len(moves) == 0 {
		panic("bots: foresight search on a position without legal moves")
	}

	rebukes := make([]rebuke, 0, len(moves))
	for i, move := range moves {
		if i > 0 && !deadline.IsZero() && time.Now().After(deadline) {
			log.Debug().Int("considered", i).Int("candidates", len(moves)).Msg("deadline reached")
			moves = moves[:i]
			break
		}
		board.With(move, func() {
			reply, ok := b.BestReply(board)
			rebukes = append(rebukes, rebuke{reply: reply, ok: ok})
		})
	}

	best := moves[0]
	bestScore := math.Inf(-1)
	for i, move := range moves {
		r := rebukes[i]
		if !r.ok {
			log.Debug().Str("move", move.String()).Msg("opponent has no reply")
			return move
		}

		var score float64
		board.With(move, func() {
			board.With(r.reply, func() {
				score = BoardScore(b.Evaluator, board, board.WhiteToMove())
			})
		})

		if score > bestScore {
			best, bestScore = move, score
		}
	}
	return best
}
