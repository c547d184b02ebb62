package protocol

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// UnknownAsset is reported when the asset of an interaction cannot be decoded.
const UnknownAsset = "Unknown"

const defaultTokenDecimals = 18

var (
	errShortInput    = errors.New("input shorter than a selector")
	errUnknownMethod = errors.New("selector does not map to an interaction")
)

// Argument names that carry the asset and the amount, in preference order.
var (
	assetArgNames  = []string{"asset", "poolToken", "debtAsset"}
	amountArgNames = []string{"amount", "debtToCover"}
)

const erc20DecimalsABI = `[{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}]`

var erc20ABI = MustParseABI(erc20DecimalsABI)

// DecodedCall is a protocol call recovered from transaction input.
type DecodedCall struct {
	Method string
	Type   entity.InteractionType
	Asset  common.Address
	Amount *big.Int
}

// MustParseABI parses a JSON ABI and panics on malformed definitions.
func MustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return parsed
}

// DecodeCall resolves the 4-byte selector of input against contractABI and
// extracts the asset and amount arguments.
func DecodeCall(contractABI abi.ABI, input string) (DecodedCall, error) {
	data, err := hexutil.Decode(input)
	if err != nil {
		return DecodedCall{}, fmt.Errorf("decode input hex: %w", err)
	}
	if len(data) < 4 {
		return DecodedCall{}, errShortInput
	}

	method, err := contractABI.MethodById(data[:4])
	if err != nil {
		return DecodedCall{}, fmt.Errorf("%w: %v", errUnknownMethod, err)
	}
	class, ok := Classify(method.Name)
	if !ok {
		return DecodedCall{}, fmt.Errorf("%w: %s", errUnknownMethod, method.Name)
	}

	args := make(map[string]any, len(method.Inputs))
	if err := method.Inputs.UnpackIntoMap(args, data[4:]); err != nil {
		return DecodedCall{}, fmt.Errorf("unpack %s arguments: %w", method.Name, err)
	}

	call := DecodedCall{Method: method.Name, Type: class}
	for _, name := range assetArgNames {
		if v, ok := args[name].(common.Address); ok {
			call.Asset = v
			break
		}
	}
	for _, name := range amountArgNames {
		if v, ok := args[name].(*big.Int); ok {
			call.Amount = v
			break
		}
	}
	if call.Amount == nil {
		return DecodedCall{}, fmt.Errorf("%s has no amount argument", method.Name)
	}
	return call, nil
}

// TokenDecimals reads decimals() from an ERC-20, defaulting to 18 when the call fails.
func TokenDecimals(ctx context.Context, client port.BlockchainClient, token common.Address) uint8 {
	if client == nil || token == (common.Address{}) {
		return defaultTokenDecimals
	}
	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return defaultTokenDecimals
	}
	out, err := client.CallContract(ctx, token.Hex(), data)
	if err != nil || len(out) == 0 {
		return defaultTokenDecimals
	}
	values, err := erc20ABI.Unpack("decimals", out)
	if err != nil || len(values) == 0 {
		return defaultTokenDecimals
	}
	if d, ok := values[0].(uint8); ok {
		return d
	}
	return defaultTokenDecimals
}

// FilterToContract keeps successful transactions sent to contract (case-insensitive).
func FilterToContract(txs []entity.Transaction, contract string) []entity.Transaction {
	var out []entity.Transaction
	for _, tx := range txs {
		if tx.Status && strings.EqualFold(tx.To, contract) {
			out = append(out, tx)
		}
	}
	return out
}

// IsDeployed reports whether a contract table entry is usable.
func IsDeployed(address string) bool {
	return address != "" && !strings.EqualFold(address, entity.ZeroAddress)
}
