package scanner

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// DefaultEventName is the raffle's terminal event.
const DefaultEventName = "WinnerChosen"

const raffleABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "winner", "type": "address"}
    ],
    "name": "WinnerChosen",
    "type": "event"
  }
]`

// RaffleABI returns the built-in raffle ABI.
func RaffleABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(raffleABIJSON))
}

// LoadABI reads a JSON ABI from path, or returns the built-in one when path is empty.
func LoadABI(path string) (abi.ABI, error) {
	if path == "" {
		return RaffleABI()
	}
	f, err := os.Open(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("open raffle abi: %w", err)
	}
	defer f.Close()

	return LoadABIFromReader(f)
}

// LoadABIFromReader parses a JSON ABI.
func LoadABIFromReader(r io.Reader) (abi.ABI, error) {
	parsed, err := abi.JSON(r)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse raffle abi: %w", err)
	}
	return parsed, nil
}
