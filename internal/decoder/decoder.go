package decoder

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"raffleScope/internal/model"
	"raffleScope/internal/token"
)

var (
	// ErrMalformedPayload means a log's data is not an unsigned integer.
	ErrMalformedPayload = errors.New("malformed log payload")
	// ErrZeroAmount means the log carried a zero value.
	ErrZeroAmount = errors.New("zero amount")
	// ErrNotTransfer means the log was filtered out by topic.
	ErrNotTransfer = errors.New("not an erc20 transfer")
)

// TransferTopic is keccak256("Transfer(address,address,uint256)").
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// MetadataResolver resolves token metadata for an emitting contract.
type MetadataResolver interface {
	Resolve(ctx context.Context, addr common.Address) (model.TokenMeta, error)
}

// Options tunes which logs the decoder considers.
type Options struct {
	// TransfersOnly skips logs whose topic0 is not the ERC20 Transfer event.
	TransfersOnly bool
}

// Result is the ledger decoded from one receipt.
type Result struct {
	LogCount  int
	Transfers []model.DecodedTransfer
	Skipped   []model.SkippedLog
}

// NoLogs reports whether the receipt carried no logs at all.
func (r Result) NoLogs() bool {
	return r.LogCount == 0
}

// Decoder turns receipt logs into token transfers.
type Decoder struct {
	resolver MetadataResolver
	opts     Options
	logger   *zap.Logger
}

// New builds a Decoder.
func New(resolver MetadataResolver, opts Options, logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{resolver: resolver, opts: opts, logger: logger}
}

type resolution struct {
	meta model.TokenMeta
	err  error
}

// Decode walks the receipt's logs in order. Logs that cannot be decoded are
// reported in Result.Skipped and never abort the receipt.
func (d *Decoder) Decode(ctx context.Context, receipt *types.Receipt) Result {
	if receipt == nil || len(receipt.Logs) == 0 {
		return Result{}
	}

	res := Result{LogCount: len(receipt.Logs)}
	metas := d.resolveEmitters(ctx, receipt.Logs)

	for _, lg := range receipt.Logs {
		if lg == nil {
			continue
		}
		transfer, err := d.decodeLog(lg, metas[lg.Address])
		if err != nil {
			d.logger.Debug("skip log",
				zap.String("tx_hash", lg.TxHash.Hex()),
				zap.Uint("log_index", lg.Index),
				zap.String("address", lg.Address.Hex()),
				zap.Error(err),
			)
			res.Skipped = append(res.Skipped, model.SkippedLog{
				LogIndex: lg.Index,
				Address:  lg.Address.Hex(),
				Reason:   err,
			})
			continue
		}
		res.Transfers = append(res.Transfers, transfer)
	}

	return res
}

// resolveEmitters resolves each distinct emitting contract once, in the
// order the contracts first appear.
func (d *Decoder) resolveEmitters(ctx context.Context, logs []*types.Log) map[common.Address]resolution {
	metas := make(map[common.Address]resolution)
	for _, lg := range logs {
		if lg == nil {
			continue
		}
		if _, ok := metas[lg.Address]; ok {
			continue
		}
		if d.opts.TransfersOnly && !isTransfer(lg) {
			continue
		}
		meta, err := d.resolver.Resolve(ctx, lg.Address)
		metas[lg.Address] = resolution{meta: meta, err: err}
	}
	return metas
}

func (d *Decoder) decodeLog(lg *types.Log, r resolution) (model.DecodedTransfer, error) {
	if d.opts.TransfersOnly && !isTransfer(lg) {
		return model.DecodedTransfer{}, ErrNotTransfer
	}
	if r.err != nil {
		return model.DecodedTransfer{}, r.err
	}

	amount, err := ParseAmount(lg.Data)
	if err != nil {
		return model.DecodedTransfer{}, err
	}
	if amount.Sign() == 0 {
		return model.DecodedTransfer{}, ErrZeroAmount
	}

	return model.DecodedTransfer{
		LogIndex:  lg.Index,
		Token:     lg.Address.Hex(),
		Name:      r.meta.Name,
		Symbol:    r.meta.Symbol,
		RawAmount: amount.String(),
		Amount:    token.FormatUnits(amount, r.meta.Decimals),
	}, nil
}

// ParseAmount interprets data as a big-endian unsigned integer.
func ParseAmount(data []byte) (*big.Int, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrMalformedPayload)
	}
	return new(big.Int).SetBytes(data), nil
}

func isTransfer(lg *types.Log) bool {
	return len(lg.Topics) > 0 && lg.Topics[0] == TransferTopic
}
