package bots

import (
	"fmt"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"github.com/rs/zerolog/log"
)

// UCIBot drives an external UCI engine process (e.g. Stockfish).
type UCIBot struct {
	mu       sync.Mutex
	eng      *uci.Engine
	path     string
	moveTime time.Duration
}

// NewUCIBot starts the engine at path and runs the UCI handshake.
func NewUCIBot(path string, moveTime time.Duration) (*UCIBot, error) {
	eng, err := uci.New(path)
	if err != nil {
		return nil, fmt.Errorf("start uci engine %q: %w", path, err)
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, fmt.Errorf("uci handshake with %q: %w", path, err)
	}
	return &UCIBot{eng: eng, path: path, moveTime: moveTime}, nil
}

// BestMove is safe for concurrent use; requests to the engine are serialised.
func (b *UCIBot) BestMove(game *chess.Game) *chess.Move {
	if game == nil || len(game.ValidMoves()) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cmdPos := uci.CmdPosition{Position: game.Position()}
	cmdGo := uci.CmdGo{MoveTime: b.moveTime}
	if err := b.eng.Run(cmdPos, cmdGo); err != nil {
		log.Error().Err(err).Str("engine", b.path).Msg("uci search failed")
		return nil
	}
	return b.eng.SearchResults().BestMove
}

func (b *UCIBot) Name() string {
	return fmt.Sprintf("UCI (%s)", b.path)
}

func (b *UCIBot) Close() error {
	return b.eng.Close()
}
