package entity

// ChainSnapshot is one chain's state for an address.
type ChainSnapshot struct {
	ChainID       uint64 `json:"chainId"`
	NativeBalance string `json:"nativeBalance"`
	// NativeValueUSD is zero when no price is known for the native asset.
	NativeValueUSD float64        `json:"nativeValueUSD,omitempty"`
	Tokens         []TokenBalance `json:"tokens"`
	NFTs           []NFT          `json:"nfts"`
	Transactions   []Transaction  `json:"transactions"`
}

// TokenBalance is a fungible token holding as reported by the explorer.
type TokenBalance struct {
	ContractAddress string  `json:"contractAddress"`
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	Balance         string  `json:"balance"`
	Decimals        uint8   `json:"decimals"`
	ValueUSD        float64 `json:"valueUSD"`
}

// NFT is a non-fungible holding observed through transfer events.
type NFT struct {
	ContractAddress string   `json:"contractAddress"`
	TokenID         string   `json:"tokenId"`
	Name            string   `json:"name"`
	Image           string   `json:"image,omitempty"`
	ValueUSD        *float64 `json:"valueUSD,omitempty"`
}

// Key identifies an NFT within a chain.
func (n NFT) Key() string {
	return n.ContractAddress + ":" + n.TokenID
}

// Transaction is a normalized explorer transaction. Value is in native units.
type Transaction struct {
	Hash         string `json:"hash"`
	Timestamp    int64  `json:"timestamp"`
	Value        string `json:"value"`
	From         string `json:"from"`
	To           string `json:"to"`
	GasUsed      string `json:"gasUsed"`
	Status       bool   `json:"status"`
	FunctionName string `json:"functionName,omitempty"`
	BlockNumber  uint64 `json:"blockNumber"`
	Input        string `json:"-"`
}

// NFTTransfer is a raw ERC-721/1155 transfer record from the explorer.
type NFTTransfer struct {
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
	TokenName       string `json:"tokenName"`
	From            string `json:"from"`
	To              string `json:"to"`
	Timestamp       int64  `json:"timestamp"`
}
