package ui

import (
	"fmt"

	"laptudirm.com/x/scholar/pkg/analysis"
	"laptudirm.com/x/scholar/pkg/masters"
)

// FormatLines renders an evaluation snapshot one candidate line per row,
// with the principal variation converted to SAN.
func FormatLines(setup string, moves []string, snapshot []analysis.Line) []string {
	rows := make([]string, 0, len(snapshot))
	for _, line := range snapshot {
		rows = append(rows, fmt.Sprintf(
			"%d: %s %s (depth %d)",
			line.Rank, line.Score, SANLine(setup, moves, line.Moves), line.Depth,
		))
	}

	return rows
}

// FormatStats renders up to limit masters database moves as
// "e4: 2412 games (W:34% D:45% B:21%)" rows, most played first.
func FormatStats(stats *masters.Stats, limit int) []string {
	if stats == nil || limit <= 0 {
		return nil
	}

	rows := make([]string, 0, limit)
	if stats.Opening != nil && stats.Opening.Name != "" {
		rows = append(rows, "Opening: "+stats.Opening.Name)
	}

	for i, move := range stats.Moves {
		if i >= limit {
			break
		}

		total := move.Total()
		if total == 0 {
			continue
		}

		rows = append(rows, fmt.Sprintf(
			"%s: %d games (W:%.0f%% D:%.0f%% B:%.0f%%)",
			move.SAN, total,
			float64(move.White)/float64(total)*100,
			float64(move.Draws)/float64(total)*100,
			float64(move.Black)/float64(total)*100,
		))
	}

	return rows
}
