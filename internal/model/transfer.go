package model

// DecodedTransfer is a receipt log resolved against its token's metadata.
// RawAmount is the unscaled integer; Amount is RawAmount / 10^decimals.
type DecodedTransfer struct {
	LogIndex  uint   `json:"log_index"`
	Token     string `json:"token"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	RawAmount string `json:"raw_amount"`
	Amount    string `json:"amount"`
}

// SkippedLog records a receipt log that produced no transfer and why.
type SkippedLog struct {
	LogIndex uint   `json:"log_index"`
	Address  string `json:"address"`
	Reason   error  `json:"-"`
}

// TokenMeta is the ERC20 metadata of an emitting contract.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
