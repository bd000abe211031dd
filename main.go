package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"foresightbot/arena"
	"foresightbot/bots"
	"foresightbot/config"
)

var configPath = flag.String("config", "", "path to a YAML config file")

func usage() {
	w := flag.CommandLine.Output()
	io.WriteString(w, "usage: foresightbot [-config file] <command> [flags]\n")
	io.WriteString(w, "commands:\n")
	io.WriteString(w, "think -fen <fen> [-budget d] - print the foresight bot's move in UCI notation\n")
	io.WriteString(w, "arena [-games n] [-opponent name] - play a match against another bot\n")
	fmt.Fprintf(w, "    opponents: %v\n", bots.Names())
	flag.PrintDefaults()
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "think":
		err = runThink(cfg, args[1:])
	case "arena":
		err = runArena(cfg, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("")
	}
}

func newForesightBot(cfg *config.Config) (*bots.ForesightBot, error) {
	opts, err := cfg.BotOptions()
	if err != nil {
		return nil, err
	}
	return bots.NewForesightBotWithOptions(opts)
}

func runThink(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("think", flag.ContinueOnError)
	fen := fs.String("fen", chess.StartingPosition().String(), "position to think about")
	budget := fs.Duration("budget", cfg.Bot.MoveBudget, "time budget for the move")
	if err := fs.Parse(args); err != nil {
		return err
	}

	board, err := bots.NewBoardFromFEN(*fen)
	if err != nil {
		return err
	}
	if len(board.LegalMoves()) == 0 {
		return fmt.Errorf("no legal moves in %q (%s)", *fen, board.Position().Status())
	}

	bot, err := newForesightBot(cfg)
	if err != nil {
		return err
	}
	start := time.Now()
	move := bot.Think(board, *budget)
	log.Info().Dur("elapsed", time.Since(start)).Msg("thought")
	fmt.Println(chess.UCINotation{}.Encode(board.Position(), move))
	return nil
}

func runArena(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("arena", flag.ContinueOnError)
	games := fs.Int("games", cfg.Arena.Games, "number of games")
	opponentName := fs.String("opponent", cfg.Arena.Opponent, "opponent bot")
	if err := fs.Parse(args); err != nil {
		return err
	}

	bot, err := newForesightBot(cfg)
	if err != nil {
		return err
	}
	opts, err := cfg.BotOptions()
	if err != nil {
		return err
	}
	opponent, err := bots.New(*opponentName, opts)
	if err != nil {
		return err
	}
	if c, ok := opponent.(io.Closer); ok {
		defer c.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := arena.Run(ctx, bot, opponent, arena.Settings{
		Games:       *games,
		Parallelism: cfg.Arena.Parallelism,
		MaxPlies:    cfg.Arena.MaxPlies,
		StartFEN:    cfg.Arena.StartFEN,
	})
	if err != nil {
		return err
	}

	if cfg.Arena.PGNOut != "" {
		if err := writeFile(cfg.Arena.PGNOut, func(w io.Writer) error { return arena.WritePGN(w, results) }); err != nil {
			return err
		}
	}

	report := arena.Summarize(bot.Name(), opponent.Name(), results)
	log.Info().Int("wins", report.Wins).Int("draws", report.Draws).Int("losses", report.Losses).
		Float64("score", report.Score).Msg("match finished")
	if cfg.Arena.ReportOut == "" {
		return arena.WriteReport(os.Stdout, report)
	}
	return writeFile(cfg.Arena.ReportOut, func(w io.Writer) error { return arena.WriteReport(w, report) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
