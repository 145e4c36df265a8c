package scanner

import (
	"fmt"

	"raffleScope/internal/model"
)

// SplitRange splits an inclusive block range into batches of at most batchSize blocks.
func SplitRange(from, to, batchSize uint64) ([]model.ScanWindow, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	ranges := make([]model.ScanWindow, 0)
	start := from
	for start <= to {
		remaining := to - start + 1
		var end uint64
		if remaining <= batchSize {
			end = to
		} else {
			end = start + batchSize - 1
		}
		ranges = append(ranges, model.ScanWindow{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
