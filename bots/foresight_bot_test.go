package bots

import (
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/notnil/chess"
)

var _ ChessBot = (*ForesightBot)(nil)

func moveStrings(moves []*chess.Move) []string {
	s := make([]string, len(moves))
	for i, m := range moves {
		s[i] = m.String()
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestBestReplySingleMove(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, "1r5k/8/8/8/8/8/8/K7 w - - 0 1")
	is.Equal(len(b.LegalMoves()), 1)

	move, ok := NewForesightBot(time.Second).BestReply(b)
	is.True(ok)
	is.Equal(move.String(), "a1a2")
	is.Equal(b.Depth(), 0)
}

func TestBestReplyNoMoves(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, "k7/8/8/8/8/8/2q5/K7 w - - 0 1")
	move, ok := NewForesightBot(time.Second).BestReply(b)
	is.True(!ok)
	is.True(move == nil)
}

func TestBestReplyTakesTheQueen(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, "4k3/8/8/4p3/3Q4/8/8/4K3 b - - 0 1")
	move, ok := NewForesightBot(time.Second).BestReply(b)
	is.True(ok)
	is.Equal(move.String(), "e5d4")
}

func TestBestReplyTieKeepsFirstMove(t *testing.T) {
	is := is.New(t)
	// Lone kings: every reply scores the same.
	b := mustBoard(t, "7k/8/8/8/8/8/8/K7 w - - 0 1")
	move, ok := NewForesightBot(time.Second).BestReply(b)
	is.True(ok)
	is.Equal(move.String(), b.LegalMoves()[0].String())
}

func TestThinkStartingPosition(t *testing.T) {
	is := is.New(t)
	b := NewBoard(chess.StartingPosition())
	before := b.Position()
	legal := moveStrings(b.LegalMoves())
	is.Equal(len(legal), 20)

	move := NewForesightBot(time.Second).Think(b, time.Second)
	is.True(contains(legal, move.String()))
	is.Equal(b.Position(), before)
	is.Equal(b.Depth(), 0)
}

func TestThinkMovesThreatenedQueen(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, "4k3/8/8/4p3/3Q4/8/8/4K3 w - - 0 1")
	before := b.Position()
	bot := NewForesightBot(time.Second)

	move, ok := bot.threatResponse(b)
	is.True(ok)
	is.Equal(move.S1(), chess.D4)

	move = bot.Think(b, time.Second)
	is.Equal(move.S1(), chess.D4)
	is.Equal(b.Position(), before)
	is.Equal(b.Depth(), 0)
}

func TestThreatenedPinnedPieceFallsThrough(t *testing.T) {
	is := is.New(t)
	// The knight on e4 is attacked by the pawn but pinned to its king.
	b := mustBoard(t, "4r2k/8/8/3p4/4N3/8/8/4K3 w - - 0 1")
	before := b.Position()
	bot := NewForesightBot(time.Second)

	_, ok := bot.threatResponse(b)
	is.True(!ok)
	is.Equal(b.Depth(), 0)

	move := bot.Think(b, time.Second)
	is.True(contains(moveStrings(b.LegalMoves()), move.String()))
	is.Equal(move.S1(), chess.E1)
	is.Equal(b.Position(), before)
	is.Equal(b.Depth(), 0)
}

func TestNoThreatInStartingPosition(t *testing.T) {
	is := is.New(t)
	b := NewBoard(chess.StartingPosition())
	_, ok := NewForesightBot(time.Second).threatResponse(b)
	is.True(!ok)
	is.Equal(b.Depth(), 0)
}

func TestThinkInCheckSkipsThreatProbe(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, "4k3/8/8/8/8/8/8/r3K3 w - - 0 1")
	before := b.Position()
	bot := NewForesightBot(time.Second)

	_, ok := bot.threatResponse(b)
	is.True(!ok)

	move := bot.Think(b, time.Second)
	is.Equal(move.S1(), chess.E1)
	is.Equal(b.Position(), before)
}

func TestForesightFindsMateInOne(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	before := b.Position()
	bot := NewForesightBot(time.Second)

	is.Equal(bot.BestMoveWithForesight(b).String(), "a1a8")
	is.Equal(bot.Think(b, time.Second).String(), "a1a8")
	is.Equal(b.Position(), before)
}

// A move that leaves the opponent without replies is played even when it
// only stalemates.
func TestForesightPlaysStalemateAsWin(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, "k7/p7/P1K5/8/8/8/8/8 w - - 0 1")
	move := NewForesightBot(time.Second).BestMoveWithForesight(b)
	is.Equal(move.String(), "c6c7")

	b.With(move, func() {
		is.Equal(len(b.LegalMoves()), 0)
		is.Equal(b.Position().Status(), chess.Stalemate)
	})
}

func TestForesightAvoidsHangingTheQueen(t *testing.T) {
	is := is.New(t)
	// The queen can take a defended pawn on d5 or stay safe.
	b := mustBoard(t, "4k3/8/4p3/3p4/8/8/8/3QK3 w - - 0 1")
	bot := NewForesightBot(time.Second)
	bot.ThreatCheck = false

	move := bot.BestMoveWithForesight(b)
	is.True(move.String() != "d1d5")
}

func TestThinkLeavesBoardUnchanged(t *testing.T) {
	is := is.New(t)
	bot := NewForesightBot(time.Second)
	for _, fen := range []string{
		"r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/3P1N2/PPP2PPP/RNBQK2R w KQkq - 0 5",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	} {
		b := mustBoard(t, fen)
		before := b.Position()
		move := bot.Think(b, time.Second)
		is.True(contains(moveStrings(b.LegalMoves()), move.String()))
		is.Equal(b.Position(), before)
		is.Equal(b.Position().String(), fen)
		is.Equal(b.Depth(), 0)
	}
}

func TestStrictDeadlineStillMoves(t *testing.T) {
	is := is.New(t)
	b := NewBoard(chess.StartingPosition())
	bot := NewForesightBot(0)
	bot.StrictDeadline = true

	move := bot.Think(b, 0)
	is.Equal(move.String(), b.LegalMoves()[0].String())
	is.Equal(b.Depth(), 0)
}

func TestThinkWithoutMovesPanics(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t, "k7/8/8/8/8/8/2q5/K7 w - - 0 1")
	defer func() {
		is.True(recover() != nil)
		is.Equal(b.Depth(), 0)
	}()
	NewForesightBot(time.Second).Think(b, time.Second)
}

func TestBestMoveOnFinishedGame(t *testing.T) {
	is := is.New(t)
	opt, err := chess.FEN("k7/8/8/8/8/8/2q5/K7 w - - 0 1")
	is.NoErr(err)
	is.True(NewForesightBot(time.Second).BestMove(chess.NewGame(opt)) == nil)
	is.True(NewForesightBot(time.Second).BestMove(nil) == nil)
}

func TestBestMoveIsPlayable(t *testing.T) {
	is := is.New(t)
	game := chess.NewGame()
	bot := NewForesightBot(time.Second)
	for i := 0; i < 6 && game.Outcome() == chess.NoOutcome; i++ {
		move := bot.BestMove(game)
		is.True(move != nil)
		is.NoErr(game.Move(move))
	}
}
