package discovery

import (
	"context"

	"raffleScope/internal/model"
)

// Source supplies the raffles to scan and the block of each one's first mint.
type Source interface {
	FetchRaffleStarts(ctx context.Context) ([]model.RaffleRef, error)
}
