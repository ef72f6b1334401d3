// Package sink defines destinations for analysis reports.
//
// Sinks are write-only: reports are never read back by this program, so a
// run does not depend on anything a previous run stored.
package sink

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Sink stores named report documents.
// Implementations compress data with their codec and append its extension
// to name.
type Sink interface {
	// Put writes data under name, replacing any existing object.
	Put(ctx context.Context, name string, data []byte) error

	// Close releases any resources held by the sink.
	Close() error
}

// ReportName returns the object name of one game report, e.g.
// "hikaru/2024-03/7-104563894.json".
func ReportName(handle string, year int, month time.Month, index int, gameID string) string {
	return fmt.Sprintf("%s/%04d-%02d/%d-%s.json", strings.ToLower(handle), year, int(month), index, gameID)
}

// DigestName returns the object name of a player's monthly digest, e.g.
// "hikaru/2024-03/digest.json".
func DigestName(handle string, year int, month time.Month) string {
	return fmt.Sprintf("%s/%04d-%02d/digest.json", strings.ToLower(handle), year, int(month))
}

// NormalizePrefix returns prefix with exactly one trailing slash, or empty.
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
