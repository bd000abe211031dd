package arena

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"

	"foresightbot/bots"
)

const mateInOne = "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"

type silentBot struct{}

func (silentBot) BestMove(*chess.Game) *chess.Move { return nil }
func (silentBot) Name() string                      { return "Silent" }

func TestPlayGameCheckmate(t *testing.T) {
	is := is.New(t)
	res, err := PlayGame(context.Background(), bots.NewForesightBot(time.Second), bots.NewNewbornBot(), mateInOne, 10)
	is.NoErr(err)
	is.Equal(res.Outcome, chess.WhiteWon)
	is.Equal(res.Method, chess.Checkmate)
	is.Equal(res.Plies, 1)
	is.True(!res.Adjudicated)
	is.Equal(res.White, "Foresight")
	is.True(res.PGN != "")
}

func TestPlayGameAdjudicatesAtMaxPlies(t *testing.T) {
	is := is.New(t)
	res, err := PlayGame(context.Background(), bots.NewNewbornBot(), bots.NewNewbornBot(), chess.StartingPosition().String(), 4)
	is.NoErr(err)
	is.Equal(res.Plies, 4)
	is.True(res.Adjudicated)
	is.Equal(res.Outcome, chess.Draw)
	is.Equal(res.Score(), 0.5)
}

func TestPlayGameBotWithoutMove(t *testing.T) {
	is := is.New(t)
	_, err := PlayGame(context.Background(), silentBot{}, bots.NewNewbornBot(), chess.StartingPosition().String(), 10)
	is.True(errors.Is(err, ErrNoMoves))
}

func TestPlayGameBadFEN(t *testing.T) {
	is := is.New(t)
	_, err := PlayGame(context.Background(), bots.NewNewbornBot(), bots.NewNewbornBot(), "not a fen", 10)
	is.True(err != nil)
}

func TestPlayGameCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PlayGame(ctx, bots.NewNewbornBot(), bots.NewNewbornBot(), chess.StartingPosition().String(), 10)
	is.True(errors.Is(err, context.Canceled))
}

func TestRunAlternatesColours(t *testing.T) {
	is := is.New(t)
	foresight := bots.NewForesightBot(time.Second)
	results, err := Run(context.Background(), foresight, bots.NewNewbornBot(), Settings{
		Games:       4,
		Parallelism: 2,
		MaxPlies:    6,
		StartFEN:    chess.StartingPosition().String(),
	})
	is.NoErr(err)
	is.Equal(len(results), 4)
	for i, res := range results {
		is.Equal(res.Index, i)
		is.Equal(res.BotIsWhite, i%2 == 0)
		if res.BotIsWhite {
			is.Equal(res.White, "Foresight")
		} else {
			is.Equal(res.Black, "Foresight")
		}
	}
}

func TestRunStopsOnError(t *testing.T) {
	is := is.New(t)
	_, err := Run(context.Background(), silentBot{}, bots.NewNewbornBot(), Settings{
		Games:       3,
		Parallelism: 1,
		MaxPlies:    10,
		StartFEN:    chess.StartingPosition().String(),
	})
	is.True(errors.Is(err, ErrNoMoves))
}

func TestSummarize(t *testing.T) {
	is := is.New(t)
	results := []GameResult{
		{Index: 0, BotIsWhite: true, Outcome: chess.WhiteWon, Method: chess.Checkmate, Plies: 10},
		{Index: 1, BotIsWhite: false, Outcome: chess.WhiteWon, Method: chess.Checkmate, Plies: 20},
		{Index: 2, BotIsWhite: true, Outcome: chess.Draw, Method: chess.Stalemate, Plies: 30},
		{Index: 3, BotIsWhite: false, Outcome: chess.BlackWon, Method: chess.Checkmate, Plies: 40},
	}
	r := Summarize("Foresight", "Newborn", results)
	is.Equal(r.Games, 4)
	is.Equal(r.Wins, 2)
	is.Equal(r.Draws, 1)
	is.Equal(r.Losses, 1)
	assert.InDelta(t, 2.5, r.Score, 1e-9)
	assert.InDelta(t, 25.0, r.AvgPlies, 1e-9)
	is.Equal(len(r.Results), 4)
	is.Equal(r.Results[0].Result, "1-0")

	var buf bytes.Buffer
	is.NoErr(WriteReport(&buf, r))
	is.True(strings.Contains(buf.String(), "wins: 2"))
	is.True(strings.Contains(buf.String(), "opponent: Newborn"))
}

func TestWritePGN(t *testing.T) {
	is := is.New(t)
	res, err := PlayGame(context.Background(), bots.NewForesightBot(time.Second), bots.NewNewbornBot(), mateInOne, 10)
	is.NoErr(err)

	var buf bytes.Buffer
	is.NoErr(WritePGN(&buf, []GameResult{res, res}))
	is.Equal(strings.Count(buf.String(), res.PGN), 2)
}
