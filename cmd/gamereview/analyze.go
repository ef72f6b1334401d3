package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/gamereview"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze HANDLE INDEX",
	Short: "Analyze one game",
	Long: `Analyze the game at INDEX in the player's monthly listing (see the games
command) and print the accuracy report.

A throwaway ChessKid account is created for every analysis to obtain an
analysis token.

Examples:
  gamereview analyze hikaru 0
  gamereview analyze hikaru 4 --year 2024 --month 3 --json`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

var analyzeJSON bool

func init() {
	addPeriodFlags(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid game index %q", args[1])
	}

	ctx, cancel := signalContext()
	defer cancel()

	var frames int
	e, err := newEnv(gamereview.WithProgress(func(string) { frames++ }))
	if err != nil {
		return err
	}
	defer e.Close()

	summary, err := e.client.Analyze(ctx, args[0], index, period())
	if err != nil {
		switch {
		case errors.Is(err, gamereview.ErrLookup):
			return fmt.Errorf("no game %d for %s in %s: %w", index, args[0], period().Resolve(time.Now()), err)
		case errors.Is(err, gamereview.ErrAnalysisTimeout):
			return fmt.Errorf("analysis did not finish within %s: %w", timeout, err)
		}
		return err
	}
	e.logger.Debug("analysis finished", zap.Int("progressFrames", frames))

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(summary)
	return nil
}

func printSummary(s *gamereview.Summary) {
	fmt.Printf("Opening: %s\n", s.Opening)
	fmt.Printf("Engine:  %s\n\n", s.Engine)

	fmt.Printf("%-14s %16s %16s\n", "", s.White.Username, s.Black.Username)
	fmt.Printf("%-14s %16d %16d\n", "Effective Elo", s.White.EffectiveElo, s.Black.EffectiveElo)
	fmt.Printf("%-14s %16s %16s\n", "Accuracy", s.White.Accuracy, s.Black.Accuracy)
	fmt.Printf("%-14s %16s %16s\n", "  Opening", s.White.OpeningAccuracy, s.Black.OpeningAccuracy)
	fmt.Printf("%-14s %16s %16s\n", "  Middlegame", s.White.MiddlegameAccuracy, s.Black.MiddlegameAccuracy)
	fmt.Printf("%-14s %16s %16s\n", "  Endgame", s.White.EndgameAccuracy, s.Black.EndgameAccuracy)
	fmt.Println()
	for _, l := range gamereview.Labels {
		fmt.Printf("%-14s %16d %16d\n", l, s.White.Tally[l], s.Black.Tally[l])
	}
}
