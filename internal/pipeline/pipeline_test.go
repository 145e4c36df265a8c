package pipeline

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"raffleScope/internal/decoder"
	"raffleScope/internal/model"
	"raffleScope/internal/scanner"
	"raffleScope/internal/token"
)

var errRefused = errors.New("dial tcp: connection refused")

// fakeChain serves logs, receipts and ERC20 metadata from memory.
type fakeChain struct {
	logs       map[common.Address][]types.Log
	scanErrs   map[common.Address]error
	receipts   map[common.Hash]*types.Receipt
	tokens     map[common.Address]model.TokenMeta
	queries    []ethereum.FilterQuery
	receiptReq []common.Hash
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		logs:     make(map[common.Address][]types.Log),
		scanErrs: make(map[common.Address]error),
		receipts: make(map[common.Hash]*types.Receipt),
		tokens:   make(map[common.Address]model.TokenMeta),
	}
}

func (f *fakeChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.queries = append(f.queries, q)
	addr := q.Addresses[0]
	if err := f.scanErrs[addr]; err != nil {
		return nil, err
	}
	return append([]types.Log(nil), f.logs[addr]...), nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.receiptReq = append(f.receiptReq, hash)
	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	meta, ok := f.tokens[*msg.To]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	parsed, err := token.ERC20ABI()
	if err != nil {
		return nil, err
	}
	method, err := parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(meta.Decimals)
	case "symbol":
		return method.Outputs.Pack(meta.Symbol)
	default:
		return method.Outputs.Pack(meta.Name)
	}
}

func newPipeline(t *testing.T, chain *fakeChain) (*Pipeline, *scanner.Scanner) {
	t.Helper()
	s, err := scanner.New(scanner.Config{}, chain, nil)
	require.NoError(t, err)
	resolver, err := token.NewResolver(chain, 0, nil)
	require.NoError(t, err)
	return New(s, chain, decoder.New(resolver, decoder.Options{}, nil), nil), s
}

func winner(s *scanner.Scanner, raffle common.Address, block uint64, tx common.Hash) types.Log {
	return types.Log{
		Address:     raffle,
		Topics:      []common.Hash{s.EventID(), common.BytesToHash(common.HexToAddress("0xbeef").Bytes())},
		BlockNumber: block,
		TxHash:      tx,
	}
}

func amountLog(addr common.Address, index uint, amount *big.Int) *types.Log {
	return &types.Log{
		Address: addr,
		Topics:  []common.Hash{decoder.TransferTopic},
		Data:    common.LeftPadBytes(amount.Bytes(), 32),
		Index:   index,
	}
}

func TestRunEndToEnd(t *testing.T) {
	chain := newFakeChain()
	p, s := newPipeline(t, chain)

	raffle := common.HexToAddress("0xAAA")
	tok1 := common.HexToAddress("0x70c1")
	tok2 := common.HexToAddress("0x70c2")
	tx := common.HexToHash("0xf1")

	chain.tokens[tok1] = model.TokenMeta{Decimals: 18, Symbol: "ABC", Name: "Alpha Beta Coin"}
	chain.tokens[tok2] = model.TokenMeta{Decimals: 0, Symbol: "XYZ", Name: "Ex Why Zed"}
	chain.logs[raffle] = []types.Log{winner(s, raffle, 50000, tx)}

	two := new(big.Int).Mul(big.NewInt(2), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	chain.receipts[tx] = &types.Receipt{TxHash: tx, Logs: []*types.Log{
		amountLog(tok1, 0, two),
		amountLog(tok2, 1, big.NewInt(0)),
	}}

	results, err := p.Run(context.Background(), []model.RaffleRef{{Address: raffle, StartBlock: 100}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.NoError(t, res.Err)
	require.Equal(t, model.ScanWindow{From: 100, To: 100100}, res.Window)
	require.Equal(t, uint64(100), chain.queries[0].FromBlock.Uint64())
	require.Equal(t, uint64(100100), chain.queries[0].ToBlock.Uint64())
	require.Equal(t, 1, res.EventCount)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	require.NoError(t, ev.Err)
	require.Equal(t, tx, ev.Event.TxHash)
	require.Equal(t, uint64(50000), ev.Event.BlockNumber)
	require.Equal(t, 2, ev.LogCount)
	require.Equal(t, []model.DecodedTransfer{{
		LogIndex:  0,
		Token:     tok1.Hex(),
		Name:      "Alpha Beta Coin",
		Symbol:    "ABC",
		RawAmount: "2000000000000000000",
		Amount:    "2",
	}}, ev.Transfers)
}

func TestRunBatchIsolation(t *testing.T) {
	chain := newFakeChain()
	p, s := newPipeline(t, chain)

	broken := common.HexToAddress("0xBAD")
	healthy := common.HexToAddress("0x600D")
	tok := common.HexToAddress("0x70c1")
	tx := common.HexToHash("0xf2")

	chain.scanErrs[broken] = errRefused
	chain.tokens[tok] = model.TokenMeta{Decimals: 6, Symbol: "USDC", Name: "USD Coin"}
	chain.logs[healthy] = []types.Log{winner(s, healthy, 700, tx)}
	chain.receipts[tx] = &types.Receipt{TxHash: tx, Logs: []*types.Log{amountLog(tok, 3, big.NewInt(1500000))}}

	results, err := p.Run(context.Background(), []model.RaffleRef{
		{Address: broken, StartBlock: 1},
		{Address: healthy, StartBlock: 500},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.True(t, results[0].Failed())
	require.ErrorIs(t, results[0].Err, scanner.ErrScanFailure)
	require.Equal(t, broken, results[0].Ref.Address)

	require.False(t, results[1].Failed())
	require.Equal(t, healthy, results[1].Ref.Address)
	require.Len(t, results[1].Events, 1)
	require.Len(t, results[1].Events[0].Transfers, 1)
	require.Equal(t, "1.5", results[1].Events[0].Transfers[0].Amount)
}

func TestRunReceiptFailureContinues(t *testing.T) {
	chain := newFakeChain()
	p, s := newPipeline(t, chain)

	raffle := common.HexToAddress("0xAAA")
	missing := common.HexToHash("0xf3")
	present := common.HexToHash("0xf4")
	chain.logs[raffle] = []types.Log{
		winner(s, raffle, 10, missing),
		winner(s, raffle, 11, present),
	}
	chain.receipts[present] = &types.Receipt{TxHash: present}

	results, err := p.Run(context.Background(), []model.RaffleRef{{Address: raffle, StartBlock: 1}})
	require.NoError(t, err)
	require.Len(t, results[0].Events, 2)

	require.ErrorIs(t, results[0].Events[0].Err, ErrReceiptFailure)
	require.ErrorIs(t, results[0].Events[0].Err, ethereum.NotFound)

	require.NoError(t, results[0].Events[1].Err)
	require.Zero(t, results[0].Events[1].LogCount)
	require.Empty(t, results[0].Events[1].Transfers)
	require.Equal(t, []common.Hash{missing, present}, chain.receiptReq)
}

func TestRunNoEvents(t *testing.T) {
	chain := newFakeChain()
	p, _ := newPipeline(t, chain)

	results, err := p.Run(context.Background(), []model.RaffleRef{{Address: common.HexToAddress("0xAAA"), StartBlock: 5}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.Zero(t, results[0].EventCount)
	require.Empty(t, results[0].Events)
}

func TestResultsIsLazy(t *testing.T) {
	chain := newFakeChain()
	p, _ := newPipeline(t, chain)

	refs := []model.RaffleRef{
		{Address: common.HexToAddress("0x01"), StartBlock: 1},
		{Address: common.HexToAddress("0x02"), StartBlock: 2},
		{Address: common.HexToAddress("0x03"), StartBlock: 3},
	}
	for res := range p.Results(context.Background(), refs) {
		require.Equal(t, refs[0].Address, res.Ref.Address)
		break
	}
	require.Len(t, chain.queries, 1)
}

func TestRunCancelled(t *testing.T) {
	chain := newFakeChain()
	p, _ := newPipeline(t, chain)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := p.Run(ctx, []model.RaffleRef{{Address: common.HexToAddress("0x01"), StartBlock: 1}})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, results)
	require.Empty(t, chain.queries)
}
