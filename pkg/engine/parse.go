package engine

import (
	"strconv"
	"strings"

	"laptudirm.com/x/scholar/pkg/analysis"
)

// parseInfoLine parses a streamed search line of the form
//
//	info depth 20 seldepth 28 multipv 2 score cp 34 ... pv e2e4 e7e5 ...
//
// into a candidate line. Lines without a score and a principal variation,
// and lines that fail to parse, are reported as not ok and dropped by the
// dispatcher. A missing multipv field means a single-line search: rank 1.
func parseInfoLine(raw string) (analysis.Line, bool) {
	if !strings.HasPrefix(raw, "info ") {
		return analysis.Line{}, false
	}

	fields := strings.Fields(raw)
	line := analysis.Line{Rank: 1}
	scored := false

	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			i++
			if i >= len(fields) {
				return analysis.Line{}, false
			}

			depth, err := strconv.Atoi(fields[i])
			if err != nil {
				return analysis.Line{}, false
			}
			line.Depth = depth

		case "multipv":
			i++
			if i >= len(fields) {
				return analysis.Line{}, false
			}

			rank, err := strconv.Atoi(fields[i])
			if err != nil {
				return analysis.Line{}, false
			}
			line.Rank = rank

		case "score":
			if i+2 >= len(fields) {
				return analysis.Line{}, false
			}

			value, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return analysis.Line{}, false
			}

			switch fields[i+1] {
			case "cp":
				line.Score = analysis.Centipawns(value)
			case "mate":
				line.Score = analysis.MateIn(value)
			default:
				return analysis.Line{}, false
			}

			scored = true
			i += 2

		case "pv":
			if i+1 >= len(fields) {
				return analysis.Line{}, false
			}

			line.Moves = fields[i+1:]
			i = len(fields)
		}
	}

	if !scored || len(line.Moves) == 0 {
		return analysis.Line{}, false
	}

	return line, true
}

// isTerminator reports whether the line marks the end of a search.
func isTerminator(line string) bool {
	return strings.HasPrefix(line, "bestmove")
}
