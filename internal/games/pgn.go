package games

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// Headers is the subset of PGN metadata shown in game listings.
type Headers struct {
	Result string
	ECO    string
	Plies  int
}

// ReadHeaders parses a single-game PGN and returns its headers and ply count.
func ReadHeaders(pgn string) (Headers, error) {
	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return Headers{}, fmt.Errorf("parsing pgn: %w", err)
	}
	game := chess.NewGame(opt)

	h := Headers{Plies: len(game.Moves())}
	if tp := game.GetTagPair("Result"); tp != nil {
		h.Result = tp.Value
	}
	if tp := game.GetTagPair("ECO"); tp != nil {
		h.ECO = tp.Value
	}
	return h, nil
}
