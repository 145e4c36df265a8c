package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"raffleScope/internal/decoder"
	"raffleScope/internal/model"
)

// ErrReceiptFailure wraps errors fetching a terminal event's receipt.
var ErrReceiptFailure = errors.New("receipt fetch failed")

// EventScanner finds terminal events for a raffle.
type EventScanner interface {
	Window(fromBlock uint64) (model.ScanWindow, error)
	Scan(ctx context.Context, contract common.Address, fromBlock uint64) ([]model.TerminalEvent, error)
}

// ReceiptFetcher loads transaction receipts.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// LogDecoder turns a receipt into a transfer ledger.
type LogDecoder interface {
	Decode(ctx context.Context, receipt *types.Receipt) decoder.Result
}

// Pipeline drives raffles through scan, receipt fetch and decode, one at a time.
type Pipeline struct {
	scanner  EventScanner
	receipts ReceiptFetcher
	decoder  LogDecoder
	logger   *zap.Logger
}

// New builds a Pipeline.
func New(scanner EventScanner, receipts ReceiptFetcher, dec LogDecoder, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		scanner:  scanner,
		receipts: receipts,
		decoder:  dec,
		logger:   logger,
	}
}

// Results lazily processes refs in order, yielding one result per raffle.
// Iteration stops early when ctx is done or the consumer stops.
func (p *Pipeline) Results(ctx context.Context, refs []model.RaffleRef) iter.Seq[model.RaffleResult] {
	return func(yield func(model.RaffleResult) bool) {
		for _, ref := range refs {
			if ctx.Err() != nil {
				return
			}
			if !yield(p.ScanOne(ctx, ref)) {
				return
			}
		}
	}
}

// Run processes every ref and collects the results. Per-raffle and per-event
// failures are recorded in the results; only cancellation returns an error.
func (p *Pipeline) Run(ctx context.Context, refs []model.RaffleRef) ([]model.RaffleResult, error) {
	results := make([]model.RaffleResult, 0, len(refs))
	for res := range p.Results(ctx, refs) {
		results = append(results, res)
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// ScanOne processes a single raffle.
func (p *Pipeline) ScanOne(ctx context.Context, ref model.RaffleRef) model.RaffleResult {
	res := model.RaffleResult{Ref: ref}
	log := p.logger.With(zap.String("raffle", ref.Address.Hex()), zap.Uint64("start_block", ref.StartBlock))

	window, err := p.scanner.Window(ref.StartBlock)
	if err != nil {
		res.Err = err
		log.Warn("invalid scan window", zap.Error(err))
		return res
	}
	res.Window = window

	log.Info("scan raffle", zap.Uint64("from", window.From), zap.Uint64("to", window.To))

	events, err := p.scanner.Scan(ctx, ref.Address, ref.StartBlock)
	if err != nil {
		res.Err = err
		log.Warn("scan failed", zap.Error(err))
		return res
	}
	res.EventCount = len(events)
	log.Info("events fetched", zap.Int("events", len(events)))

	res.Events = make([]model.EventResult, 0, len(events))
	for _, event := range events {
		if ctx.Err() != nil {
			break
		}
		res.Events = append(res.Events, p.processEvent(ctx, event, log))
	}
	return res
}

func (p *Pipeline) processEvent(ctx context.Context, event model.TerminalEvent, log *zap.Logger) model.EventResult {
	out := model.EventResult{Event: event}
	log = log.With(zap.String("tx_hash", event.TxHash.Hex()))

	receipt, err := p.receipts.TransactionReceipt(ctx, event.TxHash)
	if err == nil && receipt == nil {
		err = fmt.Errorf("empty receipt")
	}
	if err != nil {
		out.Err = fmt.Errorf("%w: %s: %w", ErrReceiptFailure, event.TxHash.Hex(), err)
		log.Warn("receipt fetch failed", zap.Error(err))
		return out
	}

	decoded := p.decoder.Decode(ctx, receipt)
	out.LogCount = decoded.LogCount
	out.Transfers = decoded.Transfers
	out.Skipped = decoded.Skipped

	if decoded.NoLogs() {
		log.Info("no logs in transaction")
	} else {
		log.Info("transaction decoded",
			zap.Int("logs", decoded.LogCount),
			zap.Int("transfers", len(decoded.Transfers)),
			zap.Int("skipped", len(decoded.Skipped)),
		)
	}
	return out
}
