package token

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"raffleScope/internal/model"
)

// DefaultCacheSize bounds the number of memoized token records.
const DefaultCacheSize = 4096

// ErrMetadataUnavailable is returned when an address does not answer the
// ERC20 metadata calls with usable values.
var ErrMetadataUnavailable = errors.New("token metadata unavailable")

// Resolver loads ERC20 metadata and memoizes successful lookups.
type Resolver struct {
	caller ethereum.ContractCaller
	cache  *lru.Cache[common.Address, model.TokenMeta]
	logger *zap.Logger
}

// NewResolver builds a Resolver. A non-positive cacheSize uses DefaultCacheSize.
func NewResolver(caller ethereum.ContractCaller, cacheSize int, logger *zap.Logger) (*Resolver, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[common.Address, model.TokenMeta](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create token cache: %w", err)
	}
	return &Resolver{caller: caller, cache: cache, logger: logger}, nil
}

// Resolve returns decimals, symbol and name for token. The three reads run
// concurrently; if any of them fails the error wraps ErrMetadataUnavailable.
func (r *Resolver) Resolve(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if meta, ok := r.cache.Get(token); ok {
		return meta, nil
	}

	stringABI, err := ERC20ABI()
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	meta := model.TokenMeta{Address: token.Hex()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		values, err := r.call(gctx, token, stringABI, "decimals")
		if err != nil {
			return err
		}
		decimals, err := asUint8(values[0])
		if err != nil {
			return fmt.Errorf("decimals: %w", err)
		}
		meta.Decimals = decimals
		return nil
	})
	g.Go(func() error {
		symbol, err := r.text(gctx, token, stringABI, bytes32ABI, "symbol")
		if err != nil {
			return err
		}
		meta.Symbol = symbol
		return nil
	})
	g.Go(func() error {
		name, err := r.text(gctx, token, stringABI, bytes32ABI, "name")
		if err != nil {
			return err
		}
		meta.Name = name
		return nil
	})

	if err := g.Wait(); err != nil {
		r.logger.Debug("token metadata failed", zap.String("token", token.Hex()), zap.Error(err))
		return model.TokenMeta{}, fmt.Errorf("%w: %s: %w", ErrMetadataUnavailable, token.Hex(), err)
	}

	r.cache.Add(token, meta)
	return meta, nil
}

// text reads a string-returning method, falling back to the bytes32 variant.
func (r *Resolver) text(ctx context.Context, token common.Address, stringABI, bytes32ABI abi.ABI, method string) (string, error) {
	values, err := r.call(ctx, token, stringABI, method)
	if err == nil {
		if s, ok := values[0].(string); ok {
			return s, nil
		}
		return "", fmt.Errorf("%s: unexpected type %T", method, values[0])
	}

	fallback, fbErr := r.call(ctx, token, bytes32ABI, method)
	if fbErr != nil {
		return "", err
	}
	s, ok := bytes32ToString(fallback[0])
	if !ok {
		return "", fmt.Errorf("%s: unexpected type %T", method, fallback[0])
	}
	return s, nil
}

func (r *Resolver) call(ctx context.Context, token common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &token, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("call %s: empty response", method)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: no values", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("decimals out of range: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
