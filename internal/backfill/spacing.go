package backfill

import (
	"fmt"
	"sort"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/bitnodes"
)

// OrderError reports the first summary that breaks newest-first ordering.
type OrderError struct {
	Index     int
	Prev, Cur int64
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("listing not newest-first at #%d: %d follows %d", e.Index, e.Cur, e.Prev)
}

// CheckOrder verifies the precondition of Space: timestamps never increase.
func CheckOrder(summaries []bitnodes.Summary) error {
	for i := 1; i < len(summaries); i++ {
		if summaries[i].Timestamp > summaries[i-1].Timestamp {
			return &OrderError{Index: i, Prev: summaries[i-1].Timestamp, Cur: summaries[i].Timestamp}
		}
	}
	return nil
}

// SortNewestFirst orders summaries by descending timestamp, stable on ties.
func SortNewestFirst(summaries []bitnodes.Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Timestamp > summaries[j].Timestamp
	})
}

// Space folds over the ordered summaries keeping the first one and then
// every summary at least spacing away from the last kept one. The spacing
// guarantee only holds when CheckOrder passes.
func Space(summaries []bitnodes.Summary, spacing time.Duration) []bitnodes.Summary {
	gap := int64(spacing / time.Second)

	var (
		kept     []bitnodes.Summary
		lastKept int64
	)
	for i, s := range summaries {
		if i == 0 || abs(s.Timestamp-lastKept) >= gap {
			kept = append(kept, s)
			lastKept = s.Timestamp
		}
	}
	return kept
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
