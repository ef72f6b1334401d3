// Package digest condenses a month of game summaries into one player's
// accuracy statistics and move-quality totals.
package digest

import (
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/discochess/gamereview"
)

// Describe holds descriptive statistics for a sample.
type Describe struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// Digest summarizes the games of one player.
type Digest struct {
	Handle string `json:"handle"`
	Games  int    `json:"games"`

	// Accuracy describes the player's overall accuracy per game.
	Accuracy Describe `json:"accuracy"`
	// AsWhite and AsBlack split Accuracy by color.
	AsWhite Describe `json:"as_white"`
	AsBlack Describe `json:"as_black"`

	// Phases describes accuracy per game phase, keyed "opening",
	// "middlegame" and "endgame".
	Phases map[string]Describe `json:"phases"`

	// Tally sums the player's move classifications.
	Tally gamereview.Tally `json:"move_rating"`
}

// Of builds the digest for handle from summaries. Summaries in which handle
// did not play are skipped, as are accuracy figures that do not parse.
func Of(handle string, summaries []*gamereview.Summary) *Digest {
	var all, white, black, opening, middle, end []float64
	d := &Digest{Handle: handle, Tally: make(gamereview.Tally, len(gamereview.Labels))}
	for _, l := range gamereview.Labels {
		d.Tally[l] = 0
	}

	for _, s := range summaries {
		if s == nil {
			continue
		}
		var side *gamereview.SideSummary
		var byColor *[]float64
		switch {
		case strings.EqualFold(s.White.Username, handle):
			side, byColor = &s.White, &white
		case strings.EqualFold(s.Black.Username, handle):
			side, byColor = &s.Black, &black
		default:
			continue
		}

		d.Games++
		if v, ok := parse(side.Accuracy); ok {
			all = append(all, v)
			*byColor = append(*byColor, v)
		}
		appendParsed(&opening, side.OpeningAccuracy)
		appendParsed(&middle, side.MiddlegameAccuracy)
		appendParsed(&end, side.EndgameAccuracy)

		for l, n := range side.Tally {
			d.Tally[l] += n
		}
	}

	d.Accuracy = describe(all)
	d.AsWhite = describe(white)
	d.AsBlack = describe(black)
	d.Phases = map[string]Describe{
		"opening":    describe(opening),
		"middlegame": describe(middle),
		"endgame":    describe(end),
	}
	return d
}

// describe computes descriptive statistics for a sample.
func describe(sample []float64) Describe {
	if len(sample) == 0 {
		return Describe{}
	}

	sorted := slices.Clone(sample)
	slices.Sort(sorted)

	d := Describe{
		N:      len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	return d
}

func appendParsed(dst *[]float64, s string) {
	if v, ok := parse(s); ok {
		*dst = append(*dst, v)
	}
}

// parse reads a truncated accuracy figure such as "97.4" or "100.".
func parse(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
	return v, err == nil
}
