package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"raffleScope/internal/model"
)

// StaticSource serves a fixed list of refs.
type StaticSource struct {
	refs []model.RaffleRef
}

// NewStaticSource parses entries of the form "address:block".
func NewStaticSource(entries []string) (*StaticSource, error) {
	refs := make([]model.RaffleRef, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		ref, err := ParseRef(entry)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return &StaticSource{refs: refs}, nil
}

func (s *StaticSource) FetchRaffleStarts(context.Context) ([]model.RaffleRef, error) {
	out := make([]model.RaffleRef, len(s.refs))
	copy(out, s.refs)
	return out, nil
}

// ParseRef parses "address:block".
func ParseRef(entry string) (model.RaffleRef, error) {
	addr, blockStr, ok := strings.Cut(entry, ":")
	if !ok {
		return model.RaffleRef{}, fmt.Errorf("invalid raffle %q: want address:block", entry)
	}
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return model.RaffleRef{}, fmt.Errorf("invalid raffle address: %s", addr)
	}
	block, err := strconv.ParseUint(strings.TrimSpace(blockStr), 10, 64)
	if err != nil {
		return model.RaffleRef{}, fmt.Errorf("invalid raffle block %q: %w", blockStr, err)
	}
	return model.RaffleRef{Address: common.HexToAddress(addr), StartBlock: block}, nil
}
