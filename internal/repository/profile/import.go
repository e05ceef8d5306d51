package profile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kailas-cloud/talentrag/internal/domain/profile"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 4 << 20

// ImportStats summarizes a JSONL import.
type ImportStats struct {
	Saved    int
	Failed   int
	Failures []string // "line N: reason"
}

// Import reads one JSON profile per line and saves each. Blank lines are skipped;
// malformed or invalid records are counted as failures and do not stop the import.
func (r *Reader) Import(ctx context.Context, src io.Reader) (ImportStats, error) {
	var stats ImportStats
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("import interrupted at line %d: %w", line, err)
		}
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var p profile.Profile
		if err := json.Unmarshal(raw, &p); err != nil {
			stats.fail(line, err)
			continue
		}
		if err := r.SaveProfile(ctx, &p); err != nil {
			stats.fail(line, err)
			continue
		}
		stats.Saved++
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("read profiles: %w", err)
	}
	return stats, nil
}

func (s *ImportStats) fail(line int, err error) {
	s.Failed++
	s.Failures = append(s.Failures, fmt.Sprintf("line %d: %v", line, err))
}
