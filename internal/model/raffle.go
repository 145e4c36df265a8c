package model

import "github.com/ethereum/go-ethereum/common"

// RaffleRef identifies a raffle contract and the block of its first mint.
type RaffleRef struct {
	Address    common.Address `json:"address"`
	StartBlock uint64         `json:"start_block"`
}

// ScanWindow is an inclusive block range anchored at a raffle's first mint.
type ScanWindow struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// TerminalEvent is a WinnerChosen occurrence emitted by a raffle contract.
type TerminalEvent struct {
	TxHash      common.Hash            `json:"tx_hash"`
	Contract    common.Address         `json:"contract"`
	BlockNumber uint64                 `json:"block_number"`
	LogIndex    uint                   `json:"log_index"`
	Args        map[string]interface{} `json:"args,omitempty"`
}
