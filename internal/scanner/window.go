package scanner

import (
	"fmt"
	"math"

	"raffleScope/internal/model"
)

// DefaultWindowSize is how far past the first mint a raffle is assumed to
// settle. Raffles settling later yield no events rather than an error.
const DefaultWindowSize uint64 = 100000

// NewWindow returns the inclusive range [from, from+size].
func NewWindow(from, size uint64) (model.ScanWindow, error) {
	if size == 0 {
		return model.ScanWindow{}, fmt.Errorf("window size must be greater than zero")
	}
	if from > math.MaxUint64-size {
		return model.ScanWindow{}, fmt.Errorf("window overflows: from=%d size=%d", from, size)
	}
	return model.ScanWindow{From: from, To: from + size}, nil
}
