package aave

import "credit_aggregator/internal/infrastructure/protocol"

// Aave V3 Pool subset: user actions and the account summary view.
const poolABIJSON = `[
{"name":"supply","type":"function","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"onBehalfOf","type":"address"},{"name":"referralCode","type":"uint16"}],"outputs":[]},
{"name":"deposit","type":"function","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"onBehalfOf","type":"address"},{"name":"referralCode","type":"uint16"}],"outputs":[]},
{"name":"withdraw","type":"function","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"to","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"name":"borrow","type":"function","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"interestRateMode","type":"uint256"},{"name":"referralCode","type":"uint16"},{"name":"onBehalfOf","type":"address"}],"outputs":[]},
{"name":"repay","type":"function","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"interestRateMode","type":"uint256"},{"name":"onBehalfOf","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"name":"repayWithATokens","type":"function","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"interestRateMode","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"name":"liquidationCall","type":"function","stateMutability":"nonpayable","inputs":[{"name":"collateralAsset","type":"address"},{"name":"debtAsset","type":"address"},{"name":"user","type":"address"},{"name":"debtToCover","type":"uint256"},{"name":"receiveAToken","type":"bool"}],"outputs":[]},
{"name":"flashLoanSimple","type":"function","stateMutability":"nonpayable","inputs":[{"name":"receiverAddress","type":"address"},{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"params","type":"bytes"},{"name":"referralCode","type":"uint16"}],"outputs":[]},
{"name":"getUserAccountData","type":"function","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"totalCollateralBase","type":"uint256"},{"name":"totalDebtBase","type":"uint256"},{"name":"availableBorrowsBase","type":"uint256"},{"name":"currentLiquidationThreshold","type":"uint256"},{"name":"ltv","type":"uint256"},{"name":"healthFactor","type":"uint256"}]}
]`

var poolABI = protocol.MustParseABI(poolABIJSON)

// Fixed-point scales of getUserAccountData.
const (
	baseCurrencyDecimals = 8  // USD base amounts
	percentDecimals      = 2  // basis points
	healthFactorDecimals = 18 // wad
)

// PoolAddresses maps chain id to the Aave V3 Pool contract.
var PoolAddresses = map[uint64]string{
	1:        "0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2",
	10:       "0x794a61358D6845594F94dc1DB02A252b5b4814aD",
	56:       "0x6807dc923806fE8Fd134338EABCA509979a7e0cB",
	100:      "0xb50201558B00496A145fE76f7424749556E326D8",
	137:      "0x794a61358D6845594F94dc1DB02A252b5b4814aD",
	324:      "0x78e30497a3c7527d953c6B1E3541b021A98Ac43c",
	1088:     "0x90df02551bB792286e8D4f13E0e357b4Bf1D6a57",
	8453:     "0xA238Dd80C259a72e81d7e4664a9801593F98d1c5",
	42161:    "0x794a61358D6845594F94dc1DB02A252b5b4814aD",
	42220:    "0x3E59A31363E2ad014dcbc521c4a0d5757d9f3402",
	43114:    "0x794a61358D6845594F94dc1DB02A252b5b4814aD",
	59144:    "0xc47b8C00b0f69a36fa203Ffeac0334874574a8Ac",
	534352:   "0x11fCfe756c05AD438e312a7fd934381537D3cFfe",
	11155111: "0x6Ae43d3271ff6888e7Fc43Fd7321a503ff738951",
}
