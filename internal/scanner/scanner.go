package scanner

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"raffleScope/internal/model"
)

// ErrScanFailure wraps transport errors raised while querying events.
var ErrScanFailure = errors.New("event scan failed")

// LogFilterer is the subset of the chain client the scanner needs.
type LogFilterer interface {
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
}

// Config configures a Scanner.
type Config struct {
	ABI        abi.ABI
	EventName  string
	WindowSize uint64
	// MaxQueryRange caps the blocks per eth_getLogs call; zero queries the
	// whole window at once.
	MaxQueryRange uint64
}

// Scanner finds terminal events emitted by a raffle inside its scan window.
type Scanner struct {
	filterer   LogFilterer
	event      abi.Event
	windowSize uint64
	maxRange   uint64
	logger     *zap.Logger
}

// New builds a Scanner. Zero values in cfg fall back to the built-in ABI,
// DefaultEventName and DefaultWindowSize.
func New(cfg Config, filterer LogFilterer, logger *zap.Logger) (*Scanner, error) {
	if filterer == nil {
		return nil, fmt.Errorf("log filterer is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	parsed := cfg.ABI
	if len(parsed.Events) == 0 {
		var err error
		parsed, err = RaffleABI()
		if err != nil {
			return nil, fmt.Errorf("parse raffle abi: %w", err)
		}
	}
	name := cfg.EventName
	if name == "" {
		name = DefaultEventName
	}
	event, ok := parsed.Events[name]
	if !ok {
		return nil, fmt.Errorf("event %q not found in raffle abi", name)
	}
	size := cfg.WindowSize
	if size == 0 {
		size = DefaultWindowSize
	}

	return &Scanner{
		filterer:   filterer,
		event:      event,
		windowSize: size,
		maxRange:   cfg.MaxQueryRange,
		logger:     logger,
	}, nil
}

// EventID returns the topic0 the scanner filters on.
func (s *Scanner) EventID() common.Hash {
	return s.event.ID
}

// Window returns the scan window anchored at fromBlock.
func (s *Scanner) Window(fromBlock uint64) (model.ScanWindow, error) {
	return NewWindow(fromBlock, s.windowSize)
}

// Scan returns the terminal events emitted by contract within the window
// starting at fromBlock, in block then log index order. An empty result is
// not an error.
func (s *Scanner) Scan(ctx context.Context, contract common.Address, fromBlock uint64) ([]model.TerminalEvent, error) {
	window, err := s.Window(fromBlock)
	if err != nil {
		return nil, err
	}

	chunks := []model.ScanWindow{window}
	if s.maxRange > 0 {
		chunks, err = SplitRange(window.From, window.To, s.maxRange)
		if err != nil {
			return nil, err
		}
	}

	var logs []types.Log
	for _, chunk := range chunks {
		query := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(chunk.From),
			ToBlock:   new(big.Int).SetUint64(chunk.To),
			Addresses: []common.Address{contract},
			Topics:    [][]common.Hash{{s.event.ID}},
		}
		found, err := s.filterer.FilterLogs(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%w: %s [%d, %d]: %w", ErrScanFailure, contract.Hex(), chunk.From, chunk.To, err)
		}
		logs = append(logs, found...)
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	events := make([]model.TerminalEvent, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		events = append(events, model.TerminalEvent{
			TxHash:      lg.TxHash,
			Contract:    lg.Address,
			BlockNumber: lg.BlockNumber,
			LogIndex:    lg.Index,
			Args:        s.decodeArgs(lg),
		})
	}
	return events, nil
}

func (s *Scanner) decodeArgs(lg types.Log) map[string]interface{} {
	args := make(map[string]interface{})

	var indexed abi.Arguments
	for _, input := range s.event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(lg.Topics) > 0 && len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, lg.Topics[1:]); err != nil {
			s.logger.Warn("decode event topics failed", zap.String("tx_hash", lg.TxHash.Hex()), zap.Error(err))
			return nil
		}
	}
	if len(lg.Data) > 0 {
		if err := s.event.Inputs.UnpackIntoMap(args, lg.Data); err != nil {
			s.logger.Warn("decode event data failed", zap.String("tx_hash", lg.TxHash.Hex()), zap.Error(err))
			return nil
		}
	}
	if len(args) == 0 {
		return nil
	}
	return args
}
