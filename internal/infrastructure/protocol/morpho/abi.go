package morpho

import "credit_aggregator/internal/infrastructure/protocol"

const morphoABIJSON = `[
{"name":"supply","type":"function","stateMutability":"nonpayable","inputs":[{"name":"poolToken","type":"address"},{"name":"onBehalf","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"name":"withdraw","type":"function","stateMutability":"nonpayable","inputs":[{"name":"poolToken","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"name":"borrow","type":"function","stateMutability":"nonpayable","inputs":[{"name":"poolToken","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"name":"repay","type":"function","stateMutability":"nonpayable","inputs":[{"name":"poolToken","type":"address"},{"name":"onBehalf","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"name":"position","type":"function","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"supply","type":"uint256"},{"name":"borrow","type":"uint256"}]}
]`

var morphoABI = protocol.MustParseABI(morphoABIJSON)

// Morpho reports and accepts amounts as 18-decimal fixed point.
const amountDecimals = 18

// ContractAddresses maps chain id to the Morpho entry contract.
var ContractAddresses = map[uint64]string{
	1:      "0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb",
	10:     "0xd85cE6BD68487E0AaFb0858FDE1Cd18c76840564",
	56:     "0x01b0Bd309AA75547f7a37Ad7B1219A898E67a83a",
	100:    "0xB74D4dd451E250bC325AFF0556D717e4E2351c66",
	137:    "0x1bF0c2541F820E775182832f06c0B7Fc27A25f67",
	8453:   "0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb",
	42161:  "0x6c247b1F6182318877311737BaC0844bAa518F5e",
	42220:  "0xd24ECdD8C1e0E57a4E26B1a7bbeAa3e95466A569",
	534352: "0x2d012EdbAdc37eDc2BC62791B666f9193FDF5a55",
}
