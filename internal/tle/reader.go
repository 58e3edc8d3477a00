package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/star/orbitarc/internal/metrics"
)

// ReadPairs reads non-blank lines from r and groups them into LinePairs.
// When a line that should open a pair does not start with "1 " (or is not
// followed by a "2 " line), the reader drops that one line and retries on
// the next. Every dropped line is logged and returned.
func ReadPairs(r io.Reader, logger *slog.Logger) ([]LinePair, []SkippedLine, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var (
		pairs   []LinePair
		skipped []SkippedLine
	)
	skip := func(i int) {
		s := SkippedLine{LineNumber: i + 1, Content: lines[i]}
		skipped = append(skipped, s)
		logger.Warn("skipping misaligned TLE line",
			"event", "tle_line_skipped",
			"line_number", s.LineNumber,
			"content", s.Content,
		)
	}

	i := 0
	for i+1 < len(lines) {
		line1, line2 := lines[i], lines[i+1]
		if strings.HasPrefix(line1, "1 ") && strings.HasPrefix(line2, "2 ") {
			pairs = append(pairs, LinePair{Line1: line1, Line2: line2, LineNumber: i + 1})
			i += 2
			continue
		}
		skip(i)
		i++
	}
	// A trailing line has no partner.
	if i < len(lines) {
		skip(i)
	}

	metrics.AddTLELinesSkipped(len(skipped))
	if len(skipped) > 0 {
		logger.Info("TLE realignment summary", "pairs", len(pairs), "lines_skipped", len(skipped))
	}

	if len(pairs) == 0 {
		return nil, skipped, fmt.Errorf("%w: %d non-blank lines, %d skipped", ErrNoRecordsFound, len(lines), len(skipped))
	}
	return pairs, skipped, nil
}
