package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/games"
)

var gamesCmd = &cobra.Command{
	Use:   "games HANDLE",
	Short: "List a player's games for a month",
	Long: `List every game the player finished in the selected month, in archive
order. The index in the first column is what analyze expects.

Examples:
  gamereview games hikaru
  gamereview games hikaru --year 2023 --month 12 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runGames,
}

var gamesJSON bool

func init() {
	addPeriodFlags(gamesCmd)
	gamesCmd.Flags().BoolVar(&gamesJSON, "json", false, "output the listing as JSON")
	rootCmd.AddCommand(gamesCmd)
}

// listing is one row of the games output.
type listing struct {
	Index     int    `json:"index"`
	White     string `json:"white"`
	WhiteElo  int    `json:"white_rating"`
	Black     string `json:"black"`
	BlackElo  int    `json:"black_rating"`
	Result    string `json:"result"`
	ECO       string `json:"eco,omitempty"`
	Plies     int    `json:"plies"`
	TimeClass string `json:"time_class"`
	URL       string `json:"url"`
}

func runGames(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	list, err := e.client.ListGames(ctx, args[0], period())
	if err != nil {
		return err
	}

	rows := make([]listing, len(list))
	for i, g := range list {
		rows[i] = toListing(g)
	}

	if gamesJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No games found.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tWHITE\tBLACK\tRESULT\tECO\tPLIES\tCLASS\tURL")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s (%d)\t%s (%d)\t%s\t%s\t%d\t%s\t%s\n",
			r.Index, r.White, r.WhiteElo, r.Black, r.BlackElo, r.Result, r.ECO, r.Plies, r.TimeClass, r.URL)
	}
	return tw.Flush()
}

// toListing flattens a game. PGN problems only blank the derived columns.
func toListing(g gamereview.Game) listing {
	l := listing{
		Index:     g.Index,
		White:     g.White.Username,
		WhiteElo:  g.White.Rating,
		Black:     g.Black.Username,
		BlackElo:  g.Black.Rating,
		Result:    "-",
		TimeClass: g.TimeClass,
		URL:       g.URL,
	}
	if h, err := games.ReadHeaders(g.PGN); err == nil {
		if h.Result != "" {
			l.Result = h.Result
		}
		l.ECO = h.ECO
		l.Plies = h.Plies
	}
	return l
}
