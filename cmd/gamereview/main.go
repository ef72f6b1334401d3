// Package main provides the gamereview CLI for listing a chess.com player's
// games and having them analyzed by the chess.com engine.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
