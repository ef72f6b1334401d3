package gamereview

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/discochess/gamereview/internal/fault"
)

// Label is a move-quality classification assigned by the analysis engine.
type Label string

// Move-quality labels.
const (
	Brilliant  Label = "brilliant"
	GreatFind  Label = "greatFind"
	Best       Label = "best"
	Excellent  Label = "excellent"
	Good       Label = "good"
	Book       Label = "book"
	Inaccuracy Label = "inaccuracy"
	Mistake    Label = "mistake"
	Miss       Label = "miss"
	Blunder    Label = "blunder"
)

// Labels is the closed set of move-quality labels, best first.
var Labels = []Label{Brilliant, GreatFind, Best, Excellent, Good, Book, Inaccuracy, Mistake, Miss, Blunder}

// Tally counts moves per label. A Tally produced by Summarize has every label.
type Tally map[Label]int

// Total returns the number of classified moves.
func (t Tally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Summary is the condensed result of one game analysis.
type Summary struct {
	// Opening is the detected opening family, e.g. "Italian Game".
	Opening string `json:"opening"`

	// Engine describes the engine and strength that produced the analysis.
	Engine string `json:"engine"`

	White SideSummary `json:"white"`
	Black SideSummary `json:"black"`
}

// SideSummary holds one player's figures.
//
// Accuracy figures keep the service's decimal text cut to four characters
// ("97.456" becomes "97.4"); they are never rounded.
type SideSummary struct {
	Username     string `json:"username"`
	EffectiveElo int    `json:"effective_elo"`

	Accuracy           string `json:"accuracy"`
	OpeningAccuracy    string `json:"open_acc"`
	MiddlegameAccuracy string `json:"midd_acc"`
	EndgameAccuracy    string `json:"end_acc"`

	Tally Tally `json:"move_rating"`
}

// Players names the two participants of an analyzed game.
type Players struct {
	White string
	Black string
}

// accuracyWidth is the number of characters kept from an accuracy figure.
const accuracyWidth = 4

// Summarize turns a raw completion frame into a Summary. Any missing field
// fails with ErrMalformedResponse; no partial summary is returned.
func Summarize(raw []byte, players Players) (*Summary, error) {
	return summarize(raw, players, DefaultEngine)
}

// analysisPayload mirrors the parts of the completion frame that are read.
// Pointers distinguish absent fields from zero values.
type analysisPayload struct {
	Data *struct {
		Book *struct {
			Name *string `json:"name"`
		} `json:"book"`
		ReportCard map[string]*struct {
			EffectiveElo *json.Number `json:"effectiveElo"`
		} `json:"reportCard"`
		CAPS map[string]*struct {
			All *json.Number `json:"all"`
			GP0 *json.Number `json:"gp0"`
			GP1 *json.Number `json:"gp1"`
			GP2 *json.Number `json:"gp2"`
		} `json:"CAPS"`
		Tallies map[string]map[string]*json.Number `json:"tallies"`
	} `json:"data"`
}

func summarize(raw []byte, players Players, engine string) (*Summary, error) {
	const op = "summarize"

	var p analysisPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fault.New(fault.ErrMalformedResponse, op, err)
	}
	if p.Data == nil {
		return nil, fault.Missing(op, "data")
	}
	if p.Data.Book == nil || p.Data.Book.Name == nil {
		return nil, fault.Missing(op, "data.book.name")
	}

	s := &Summary{
		Opening: strings.Split(*p.Data.Book.Name, ",")[0],
		Engine:  engine,
	}

	for _, side := range []struct {
		color    string
		username string
		out      *SideSummary
	}{
		{"white", players.White, &s.White},
		{"black", players.Black, &s.Black},
	} {
		path := func(section, field string) string {
			return fmt.Sprintf("data.%s.%s.%s", section, side.color, field)
		}
		side.out.Username = side.username

		card := p.Data.ReportCard[side.color]
		if card == nil || card.EffectiveElo == nil {
			return nil, fault.Missing(op, path("reportCard", "effectiveElo"))
		}
		elo, err := parseRating(*card.EffectiveElo)
		if err != nil {
			return nil, fault.New(fault.ErrMalformedResponse, op, fmt.Errorf("%s: %w", path("reportCard", "effectiveElo"), err))
		}
		side.out.EffectiveElo = elo

		caps := p.Data.CAPS[side.color]
		if caps == nil {
			return nil, fault.Missing(op, "data.CAPS."+side.color)
		}
		for _, f := range []struct {
			name string
			in   *json.Number
			out  *string
		}{
			{"all", caps.All, &side.out.Accuracy},
			{"gp0", caps.GP0, &side.out.OpeningAccuracy},
			{"gp1", caps.GP1, &side.out.MiddlegameAccuracy},
			{"gp2", caps.GP2, &side.out.EndgameAccuracy},
		} {
			if f.in == nil {
				return nil, fault.Missing(op, path("CAPS", f.name))
			}
			acc, err := formatAccuracy(*f.in)
			if err != nil {
				return nil, fault.New(fault.ErrMalformedResponse, op, fmt.Errorf("%s: %w", path("CAPS", f.name), err))
			}
			*f.out = acc
		}

		tallies := p.Data.Tallies[side.color]
		if tallies == nil {
			return nil, fault.Missing(op, "data.tallies."+side.color)
		}
		side.out.Tally = make(Tally, len(Labels))
		for _, label := range Labels {
			n := tallies[string(label)]
			if n == nil {
				return nil, fault.Missing(op, path("tallies", string(label)))
			}
			count, err := parseCount(*n)
			if err != nil {
				return nil, fault.New(fault.ErrMalformedResponse, op, fmt.Errorf("%s: %w", path("tallies", string(label)), err))
			}
			side.out.Tally[label] = count
		}
	}

	return s, nil
}

// formatAccuracy renders n the way the service's figures are conventionally
// shown (integral floats keep ".0") and keeps the first four characters.
func formatAccuracy(n json.Number) (string, error) {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		f, err := n.Float64()
		if err != nil {
			return "", err
		}
		s = formatFloat(f)
	}
	if len(s) > accuracyWidth {
		s = s[:accuracyWidth]
	}
	return s, nil
}

func parseRating(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// parseCount reads a move count. Integral floats such as 3.0 are accepted.
func parseCount(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("count %s is not a whole number", n)
	}
	return int(f), nil
}

// formatFloat prints the shortest decimal that round-trips f, always with a
// fractional part: 97.0 prints as "97.0", 97.456 as "97.456".
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
