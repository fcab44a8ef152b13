package game

import (
	"fmt"

	"github.com/notnil/chess"
)

// Oracle supplies chess logic for a position identified by a setup FEN and
// the moves played from it. The tree only manages move sequencing; legality
// and notation are always delegated here.
type Oracle interface {
	// Resolve parses a move entered as SAN or UCI against the given
	// position and returns both notations. Illegal and unparsable moves
	// fail with ErrIllegalMove.
	Resolve(setup string, moves []string, input string) (uci, san string, err error)

	// LegalMoves returns the legal moves of the position in UCI form.
	LegalMoves(setup string, moves []string) ([]string, error)

	// FEN returns the FEN of the position after the given moves.
	FEN(setup string, moves []string) (string, error)
}

// ChessOracle implements Oracle for standard chess.
type ChessOracle struct{}

func (oracle ChessOracle) position(setup string, moves []string) (*chess.Position, error) {
	pos := chess.StartingPosition()
	if setup != "" {
		option, err := chess.FEN(setup)
		if err != nil {
			return nil, fmt.Errorf("game: bad setup fen: %w", err)
		}

		pos = chess.NewGame(option).Position()
	}

	for _, uci := range moves {
		move, err := chess.UCINotation{}.Decode(pos, uci)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
		}

		pos = pos.Update(move)
	}

	return pos, nil
}

func (oracle ChessOracle) Resolve(setup string, moves []string, input string) (string, string, error) {
	pos, err := oracle.position(setup, moves)
	if err != nil {
		return "", "", err
	}

	move, err := chess.AlgebraicNotation{}.Decode(pos, input)
	if err != nil {
		// Not valid SAN: the move may have been entered as UCI.
		if move, err = (chess.UCINotation{}).Decode(pos, input); err != nil {
			return "", "", fmt.Errorf("%w: %s", ErrIllegalMove, input)
		}
	}

	for _, legal := range pos.ValidMoves() {
		if legal.String() == move.String() {
			return move.String(), chess.AlgebraicNotation{}.Encode(pos, move), nil
		}
	}

	return "", "", fmt.Errorf("%w: %s", ErrIllegalMove, input)
}

func (oracle ChessOracle) LegalMoves(setup string, moves []string) ([]string, error) {
	pos, err := oracle.position(setup, moves)
	if err != nil {
		return nil, err
	}

	valid := pos.ValidMoves()
	legal := make([]string, 0, len(valid))
	for _, move := range valid {
		legal = append(legal, move.String())
	}

	return legal, nil
}

func (oracle ChessOracle) FEN(setup string, moves []string) (string, error) {
	pos, err := oracle.position(setup, moves)
	if err != nil {
		return "", err
	}

	return pos.String(), nil
}
