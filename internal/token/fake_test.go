package token

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var errReverted = errors.New("execution reverted")

// fakeCaller answers eth_call by (address, method) with pre-packed responses.
type fakeCaller struct {
	mu        sync.Mutex
	responses map[common.Address]map[string][]byte
	calls     int
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: make(map[common.Address]map[string][]byte)}
}

func (f *fakeCaller) set(t *testing.T, token common.Address, method string, value interface{}) {
	t.Helper()
	parsed, err := ERC20ABI()
	require.NoError(t, err)
	packed, err := parsed.Methods[method].Outputs.Pack(value)
	require.NoError(t, err)
	f.setRaw(token, method, packed)
}

func (f *fakeCaller) setRaw(token common.Address, method string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.responses[token] == nil {
		f.responses[token] = make(map[string][]byte)
	}
	f.responses[token][method] = data
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	parsed, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	method, err := parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, errReverted
	}
	resp, ok := f.responses[*msg.To][method.Name]
	if !ok {
		return nil, errReverted
	}
	return resp, nil
}
