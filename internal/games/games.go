// Package games locates a player's games on the source platform.
package games

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/discochess/gamereview/internal/fault"
)

// Side is one participant of a game.
type Side struct {
	Username string
	Rating   int
	Result   string // e.g. "win", "checkmated", "timeout"
}

// Record is one game from a monthly listing.
type Record struct {
	// Index is the position of the game in the listing it came from.
	Index int

	White Side
	Black Side

	// PGN is the full move text including tag pairs.
	PGN string

	// URL is the canonical game page, e.g. https://www.chess.com/game/live/12345678.
	URL string

	TimeClass string
	EndTime   time.Time
}

// ID returns the remote game identifier embedded in the game URL.
func (r Record) ID() (string, error) {
	return GameID(r.URL)
}

// Type returns the game type ("live" or "daily") embedded in the game URL.
func (r Record) Type() string {
	return GameType(r.URL)
}

// Source lists the games a player finished in a given month.
type Source interface {
	// Month returns the games in the order delivered upstream, indexed from 0.
	Month(ctx context.Context, handle string, period Period) ([]Record, error)
}

// Period selects one calendar month of games.
// Zero fields mean "current" and are filled by Resolve.
type Period struct {
	Year  int
	Month time.Month
}

// CurrentPeriod returns the month containing now.
func CurrentPeriod(now time.Time) Period {
	return Period{Year: now.Year(), Month: now.Month()}
}

// Resolve fills zero fields from now.
func (p Period) Resolve(now time.Time) Period {
	if p.Year == 0 {
		p.Year = now.Year()
	}
	if p.Month == 0 {
		p.Month = now.Month()
	}
	return p
}

// Validate reports whether the period names a real month.
func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("invalid month %d", p.Month)
	}
	if p.Year < 1 {
		return fmt.Errorf("invalid year %d", p.Year)
	}
	return nil
}

// String formats the period as YYYY/MM, the archive path form.
func (p Period) String() string {
	return fmt.Sprintf("%04d/%02d", p.Year, int(p.Month))
}

// Find returns the record at index.
func Find(records []Record, index int) (Record, error) {
	if index < 0 || index >= len(records) {
		return Record{}, fault.New(fault.ErrLookup, fmt.Sprintf("game %d", index),
			fmt.Errorf("index out of range [0,%d)", len(records)))
	}
	return records[index], nil
}

// GameID extracts the numeric identifier from the last path segment of a game URL.
func GameID(url string) (string, error) {
	seg := lastSegment(url)
	if seg == "" || strings.TrimLeft(seg, "0123456789") != "" {
		return "", fault.New(fault.ErrMalformedResponse, "game id",
			fmt.Errorf("no numeric id in %q", url))
	}
	return seg, nil
}

// GameType returns "daily" for correspondence game URLs and "live" otherwise.
func GameType(url string) string {
	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	if len(parts) >= 2 && parts[len(parts)-2] == "daily" {
		return "daily"
	}
	return "live"
}

func lastSegment(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return url[strings.LastIndex(url, "/")+1:]
}
