// Package arena plays matches between bots and reports the results.
package arena

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"foresightbot/bots"
)

// ErrNoMoves is returned when a bot gives no move in an unfinished game.
var ErrNoMoves = errors.New("bot returned no move")

type Settings struct {
	Games       int
	Parallelism int
	MaxPlies    int
	StartFEN    string
}

// GameResult is one finished game. BotIsWhite tells which side the first
// bot of the match played.
type GameResult struct {
	Index       int
	White       string
	Black       string
	BotIsWhite  bool
	Outcome     chess.Outcome
	Method      chess.Method
	Plies       int
	Adjudicated bool
	PGN         string
}

// Score is the result from the first bot's point of view: 1 win, 0.5 draw, 0 loss.
func (r GameResult) Score() float64 {
	switch r.Outcome {
	case chess.WhiteWon:
		if r.BotIsWhite {
			return 1
		}
		return 0
	case chess.BlackWon:
		if r.BotIsWhite {
			return 0
		}
		return 1
	}
	return 0.5
}

type GameSummary struct {
	Index       int    `yaml:"index"`
	White       string `yaml:"white"`
	Black       string `yaml:"black"`
	Result      string `yaml:"result"`
	Method      string `yaml:"method"`
	Plies       int    `yaml:"plies"`
	Adjudicated bool   `yaml:"adjudicated,omitempty"`
}

type Report struct {
	Bot      string        `yaml:"bot"`
	Opponent string        `yaml:"opponent"`
	Games    int           `yaml:"games"`
	Wins     int           `yaml:"wins"`
	Draws    int           `yaml:"draws"`
	Losses   int           `yaml:"losses"`
	Score    float64       `yaml:"score"`
	AvgPlies float64       `yaml:"avg_plies"`
	Results  []GameSummary `yaml:"results"`
}

// PlayGame plays white against black from startFEN until the game ends or
// maxPlies have been played, in which case it is adjudicated a draw.
func PlayGame(ctx context.Context, white, black bots.ChessBot, startFEN string, maxPlies int) (GameResult, error) {
	opt, err := chess.FEN(startFEN)
	if err != nil {
		return GameResult{}, fmt.Errorf("parse start fen: %w", err)
	}
	game := chess.NewGame(opt)
	game.AddTagPair("White", white.Name())
	game.AddTagPair("Black", black.Name())
	if startFEN != chess.StartingPosition().String() {
		game.AddTagPair("SetUp", "1")
		game.AddTagPair("FEN", startFEN)
	}

	res := GameResult{White: white.Name(), Black: black.Name()}
	for game.Outcome() == chess.NoOutcome && res.Plies < maxPlies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		mover := white
		if game.Position().Turn() == chess.Black {
			mover = black
		}
		move := mover.BestMove(game)
		if move == nil {
			return res, fmt.Errorf("%s at ply %d: %w", mover.Name(), res.Plies, ErrNoMoves)
		}
		if err := game.Move(move); err != nil {
			return res, fmt.Errorf("%s played %s: %w", mover.Name(), move, err)
		}
		res.Plies++
	}

	if game.Outcome() == chess.NoOutcome {
		if err := game.Draw(chess.DrawOffer); err != nil {
			return res, fmt.Errorf("adjudicate draw: %w", err)
		}
		res.Adjudicated = true
	}
	res.Outcome = game.Outcome()
	res.Method = game.Method()
	res.PGN = game.String()
	return res, nil
}

// Run plays s.Games games between bot and opponent, bot taking White in the
// even-numbered games. Up to s.Parallelism games run at once, so both bots
// must be safe for concurrent use.
func Run(ctx context.Context, bot, opponent bots.ChessBot, s Settings) ([]GameResult, error) {
	results := make([]GameResult, s.Games)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Parallelism))

	for i := 0; i < s.Games; i++ {
		g.Go(func() error {
			white, black := bot, opponent
			if i%2 == 1 {
				white, black = opponent, bot
			}
			res, err := PlayGame(ctx, white, black, s.StartFEN, s.MaxPlies)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			res.Index = i
			res.BotIsWhite = i%2 == 0
			results[i] = res

			log.Info().Int("game", i).
				Str("white", res.White).
				Str("black", res.Black).
				Str("result", res.Outcome.String()).
				Str("method", res.Method.String()).
				Int("plies", res.Plies).
				Msg("game finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summarize tallies results from the first bot's point of view.
func Summarize(botName, opponentName string, results []GameResult) *Report {
	r := &Report{
		Bot:      botName,
		Opponent: opponentName,
		Games:    len(results),
		Wins:     lo.CountBy(results, func(res GameResult) bool { return res.Score() == 1 }),
		Draws:    lo.CountBy(results, func(res GameResult) bool { return res.Score() == 0.5 }),
		Losses:   lo.CountBy(results, func(res GameResult) bool { return res.Score() == 0 }),
		Score:    lo.SumBy(results, GameResult.Score),
	}
	if len(results) > 0 {
		r.AvgPlies = float64(lo.SumBy(results, func(res GameResult) int { return res.Plies })) / float64(len(results))
	}
	r.Results = lo.Map(results, func(res GameResult, _ int) GameSummary {
		return GameSummary{
			Index:       res.Index,
			White:       res.White,
			Black:       res.Black,
			Result:      res.Outcome.String(),
			Method:      res.Method.String(),
			Plies:       res.Plies,
			Adjudicated: res.Adjudicated,
		}
	})
	return r
}

func WriteReport(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// WritePGN writes every game, separated by blank lines.
func WritePGN(w io.Writer, results []GameResult) error {
	for _, res := range results {
		if _, err := io.WriteString(w, res.PGN+"\n\n"); err != nil {
			return fmt.Errorf("write pgn: %w", err)
		}
	}
	return nil
}
