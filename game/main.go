package main

import (
	"flag"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"

	"foresightbot/bots"
	"foresightbot/config"
)

var (
	screenWidth  int
	screenHeight int
	squareSize   int
)

var (
	lightSquare = color.RGBA{240, 217, 181, 255}
	darkSquare  = color.RGBA{181, 136, 99, 255}
)

// pieceLetters are drawn in place of piece images.
var pieceLetters = map[chess.Piece]string{
	chess.WhiteKing:   "K",
	chess.WhiteQueen:  "Q",
	chess.WhiteRook:   "R",
	chess.WhiteBishop: "B",
	chess.WhiteKnight: "N",
	chess.WhitePawn:   "P",
	chess.BlackKing:   "k",
	chess.BlackQueen:  "q",
	chess.BlackRook:   "r",
	chess.BlackBishop: "b",
	chess.BlackKnight: "n",
	chess.BlackPawn:   "p",
}

type Game struct {
	chessGame    *chess.Game
	selected     chess.Square
	dragging     *chess.Piece
	dragX, dragY int
	playerColor  chess.Color
	gameStarted  bool
	botThinking  bool
	boardOffsetX int
	boardOffsetY int
	botNames     []string
	bots         map[string]bots.ChessBot
	currentBot   string
	botMutex     sync.Mutex
	squareImages [2]*ebiten.Image
}

func NewGame(cfg *config.Config) *Game {
	screenWidth, screenHeight = ebiten.ScreenSizeInFullscreen()

	// Leave room for the status line above the board.
	boardHeight := screenHeight - 80
	squareSize = boardHeight / 8
	if screenWidth/8 < squareSize {
		squareSize = screenWidth / 8
	}

	boardWidth := squareSize * 8
	g := &Game{
		bots:         createBots(cfg),
		boardOffsetX: (screenWidth - boardWidth) / 2,
		boardOffsetY: (screenHeight - boardHeight) / 2,
	}
	for _, name := range bots.Names() {
		if _, ok := g.bots[name]; ok {
			g.botNames = append(g.botNames, name)
		}
	}
	g.currentBot = "foresight"

	for i, clr := range []color.Color{lightSquare, darkSquare} {
		img := ebiten.NewImage(squareSize, squareSize)
		img.Fill(clr)
		g.squareImages[i] = img
	}
	return g
}

// createBots builds every registered bot that needs no external engine.
func createBots(cfg *config.Config) map[string]bots.ChessBot {
	opts, err := cfg.BotOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("bot options")
	}
	created := make(map[string]bots.ChessBot)
	for _, name := range bots.Names() {
		if name == "uci" {
			continue
		}
		bot, err := bots.New(name, opts)
		if err != nil {
			log.Fatal().Err(err).Str("bot", name).Msg("creating bot")
		}
		created[name] = bot
	}
	return created
}

func (g *Game) squareAt(x, y int) (chess.Square, bool) {
	x -= g.boardOffsetX
	y -= g.boardOffsetY
	if x < 0 || x >= squareSize*8 || y < 0 || y >= squareSize*8 {
		return chess.NoSquare, false
	}
	file := x / squareSize
	rank := 7 - y/squareSize
	return chess.NewSquare(chess.File(file), chess.Rank(rank)), true
}

func (g *Game) Update() error {
	if !g.gameStarted {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			btnWidth := 200
			btnHeight := 60
			btnY := screenHeight/2 + 100

			if y > btnY && y < btnY+btnHeight {
				if x > screenWidth/2-btnWidth-20 && x < screenWidth/2-20 {
					g.playerColor = chess.White
					g.startGame()
				} else if x > screenWidth/2+20 && x < screenWidth/2+20+btnWidth {
					g.playerColor = chess.Black
					g.startGame()
				}
			}
		}
		return nil
	}

	g.botMutex.Lock()
	defer g.botMutex.Unlock()

	if g.chessGame.Position().Turn() == g.playerColor && !g.botThinking {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			if sq, ok := g.squareAt(x, y); ok {
				piece := g.chessGame.Position().Board().Piece(sq)
				if piece != chess.NoPiece && piece.Color() == g.playerColor {
					g.selected = sq
					g.dragging = &piece
				}
			}
		}
		if g.dragging != nil {
			g.dragX, g.dragY = ebiten.CursorPosition()
		}

		if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && g.dragging != nil {
			x, y := ebiten.CursorPosition()
			if target, ok := g.squareAt(x, y); ok {
				if move := findMove(g.chessGame, g.selected, target); move != nil {
					if err := g.chessGame.Move(move); err == nil {
						g.startBotMove(0)
					}
				}
			}
			g.selected = chess.NoSquare
			g.dragging = nil
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyB) && !g.botThinking {
		for i, name := range g.botNames {
			if name == g.currentBot {
				g.currentBot = g.botNames[(i+1)%len(g.botNames)]
				break
			}
		}
	}
	return nil
}

func (g *Game) startGame() {
	g.chessGame = chess.NewGame()
	g.gameStarted = true
	if g.playerColor == chess.Black {
		g.startBotMove(500 * time.Millisecond)
	}
}

// startBotMove must be called with botMutex held or before the game loop runs.
func (g *Game) startBotMove(delay time.Duration) {
	g.botThinking = true
	go func() {
		time.Sleep(delay)
		g.makeBotMove()
	}()
}

func (g *Game) makeBotMove() {
	g.botMutex.Lock()
	game := g.chessGame.Clone()
	bot := g.bots[g.currentBot]
	g.botMutex.Unlock()

	// Think on a copy so drawing never waits on the search.
	var move *chess.Move
	if game.Position().Turn() != g.playerColor && game.Outcome() == chess.NoOutcome {
		start := time.Now()
		move = bot.BestMove(game)
		log.Info().Str("bot", bot.Name()).Dur("elapsed", time.Since(start)).Msg("bot moved")
	}

	g.botMutex.Lock()
	defer g.botMutex.Unlock()
	if move != nil {
		if err := g.chessGame.Move(move); err != nil {
			log.Error().Err(err).Str("move", move.String()).Msg("bot move rejected")
		}
	}
	g.botThinking = false
}

func findMove(game *chess.Game, from, to chess.Square) *chess.Move {
	for _, m := range game.ValidMoves() {
		// Promotions always become queens.
		if m.S1() == from && m.S2() == to && (m.Promo() == chess.NoPieceType || m.Promo() == chess.Queen) {
			return m
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if !g.gameStarted {
		ebitenutil.DebugPrintAt(screen, "Foresight chess", screenWidth/2-70, screenHeight/2-50)
		ebitenutil.DebugPrintAt(screen, "Choose your colour:", screenWidth/2-100, screenHeight/2)

		whiteBtn := ebiten.NewImage(200, 60)
		whiteBtn.Fill(color.RGBA{200, 200, 200, 255})
		ebitenutil.DebugPrintAt(whiteBtn, "Play white", 50, 20)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(screenWidth/2-200-20), float64(screenHeight/2+100))
		screen.DrawImage(whiteBtn, op)

		blackBtn := ebiten.NewImage(200, 60)
		blackBtn.Fill(color.RGBA{50, 50, 50, 255})
		ebitenutil.DebugPrintAt(blackBtn, "Play black", 50, 20)
		op = &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(screenWidth/2+20), float64(screenHeight/2+100))
		screen.DrawImage(blackBtn, op)
		return
	}

	g.botMutex.Lock()
	defer g.botMutex.Unlock()

	board := g.chessGame.Position().Board()
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			px, py := x*squareSize+g.boardOffsetX, y*squareSize+g.boardOffsetY
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Translate(float64(px), float64(py))
			screen.DrawImage(g.squareImages[(x+y)%2], op)

			sq := chess.NewSquare(chess.File(x), chess.Rank(7-y))
			piece := board.Piece(sq)
			if piece != chess.NoPiece && (g.dragging == nil || sq != g.selected) {
				ebitenutil.DebugPrintAt(screen, pieceLetters[piece], px+squareSize/2-3, py+squareSize/2-8)
			}
		}
	}

	if g.dragging != nil {
		ebitenutil.DebugPrintAt(screen, pieceLetters[*g.dragging], g.dragX-3, g.dragY-8)
	}

	status := "Your move"
	if g.botThinking {
		status = "Bot is thinking..."
	} else if g.chessGame.Position().Turn() != g.playerColor {
		status = "Bot to move"
	}
	ebitenutil.DebugPrintAt(screen, status, 20, 20)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Bot: %s (B to switch)", g.bots[g.currentBot].Name()), screenWidth-220, 20)

	if outcome := g.chessGame.Outcome(); outcome != chess.NoOutcome {
		ebitenutil.DebugPrintAt(screen, "Result: "+outcome.String()+" "+g.chessGame.Method().String(), screenWidth/2-50, 20)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	game := NewGame(cfg)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Foresight chess")
	ebiten.SetWindowResizable(true)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}
