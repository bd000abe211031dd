package bots

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// frame is one entry of the board's make/unmake stack. A frame pushed by a
// null move has no move.
type frame struct {
	pos  *chess.Position
	move *chess.Move
	skip bool
}

// Board is a mutable view over immutable notnil/chess positions. Moves and
// skipped turns push a new position, undo pops it, so every undo restores the
// exact position that was current before the matching apply.
type Board struct {
	stack []frame
}

// NewBoard starts a board at pos with an empty undo stack.
func NewBoard(pos *chess.Position) *Board {
	return &Board{stack: []frame{{pos: pos}}}
}

// NewBoardFromFEN builds a board from a FEN string.
func NewBoardFromFEN(fen string) (*Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return NewBoard(chess.NewGame(opt).Position()), nil
}

func (b *Board) top() frame {
	return b.stack[len(b.stack)-1]
}

// Position is the current position.
func (b *Board) Position() *chess.Position {
	return b.top().pos
}

// Depth is the number of applied moves and skips not yet undone.
func (b *Board) Depth() int {
	return len(b.stack) - 1
}

// WhiteToMove reports whether White is the side to move.
func (b *Board) WhiteToMove() bool {
	return b.Position().Turn() == chess.White
}

// LegalMoves lists the legal moves in generation order.
func (b *Board) LegalMoves() []*chess.Move {
	return b.Position().ValidMoves()
}

func (b *Board) PieceAt(sq chess.Square) chess.Piece {
	return b.Position().Board().Piece(sq)
}

// PieceList returns the squares holding pieces of the given type and side,
// in ascending square order.
func (b *Board) PieceList(pt chess.PieceType, white bool) []chess.Square {
	color := sideColor(white)
	board := b.Position().Board()
	var squares []chess.Square
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece.Type() == pt && piece.Color() == color {
			squares = append(squares, sq)
		}
	}
	return squares
}

// KingSquare returns chess.NoSquare when the side has no king.
func (b *Board) KingSquare(white bool) chess.Square {
	return kingSquare(b.Position().Board(), sideColor(white))
}

// MakeMove plays a legal move of the current position.
func (b *Board) MakeMove(m *chess.Move) {
	b.stack = append(b.stack, frame{pos: b.Position().Update(m), move: m})
}

// UndoMove takes back the last move. It panics if the last change was a
// skipped turn or if nothing was applied.
func (b *Board) UndoMove() {
	if b.Depth() == 0 || b.top().skip {
		panic("bots: UndoMove without matching MakeMove")
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// Apply plays m and returns the function that takes it back.
func (b *Board) Apply(m *chess.Move) (unapply func()) {
	b.MakeMove(m)
	depth := b.Depth()
	return func() {
		if b.Depth() != depth {
			panic(fmt.Sprintf("bots: unbalanced apply/undo (depth %d, want %d)", b.Depth(), depth))
		}
		b.UndoMove()
	}
}

// With runs fn with m applied and always takes m back afterwards.
func (b *Board) With(m *chess.Move, fn func()) {
	unapply := b.Apply(m)
	defer unapply()
	fn()
}

// InCheck reports whether the side to move is in check.
func (b *Board) InCheck() bool {
	if f := b.top(); f.move != nil {
		return f.move.HasTag(chess.Check)
	}
	pos := b.Position()
	king := kingSquare(pos.Board(), pos.Turn())
	if king == chess.NoSquare {
		return false
	}
	passed, err := passTurn(pos)
	if err != nil {
		return false
	}
	// With the turn handed over, any legal move onto our king is an attack on it.
	for _, m := range passed.ValidMoves() {
		if m.S2() == king {
			return true
		}
	}
	return false
}

// TrySkipTurn hands the move to the opponent without moving. It is illegal,
// and returns false, when the side to move is in check.
func (b *Board) TrySkipTurn() bool {
	if b.InCheck() {
		return false
	}
	passed, err := passTurn(b.Position())
	if err != nil {
		return false
	}
	b.stack = append(b.stack, frame{pos: passed, skip: true})
	return true
}

func (b *Board) UndoSkipTurn() {
	if b.Depth() == 0 || !b.top().skip {
		panic("bots: UndoSkipTurn without matching TrySkipTurn")
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// CaptureType returns the type of the piece m takes, or chess.NoPieceType.
// m must be legal in the current position.
func (b *Board) CaptureType(m *chess.Move) chess.PieceType {
	switch {
	case m.HasTag(chess.EnPassant):
		return chess.Pawn
	case m.HasTag(chess.Capture):
		return b.PieceAt(m.S2()).Type()
	}
	return chess.NoPieceType
}

// passTurn returns pos with the other side to move and no en passant square.
func passTurn(pos *chess.Position) (*chess.Position, error) {
	fields := strings.Fields(pos.String())
	if len(fields) != 6 {
		return nil, fmt.Errorf("unexpected fen %q", pos.String())
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	opt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		return nil, fmt.Errorf("pass turn: %w", err)
	}
	return chess.NewGame(opt).Position(), nil
}

func kingSquare(board *chess.Board, color chess.Color) chess.Square {
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece.Type() == chess.King && piece.Color() == color {
			return sq
		}
	}
	return chess.NoSquare
}

func sideColor(white bool) chess.Color {
	if white {
		return chess.White
	}
	return chess.Black
}
