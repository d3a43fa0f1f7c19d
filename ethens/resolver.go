package ethens

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/0xsequence/urkit/ethcoder"
	"github.com/0xsequence/urkit/ethcontract"
	"github.com/ethereum/go-ethereum/common"
)

// CoinTypeETH is the SLIP-44 coin type of ether.
const CoinTypeETH = 60

// ResolverABI holds the overloaded addr functions as "addr" (multicoin) and
// "addr0" (legacy eth).
var ResolverABI = ethcontract.MustParseABI(`[
	{"type":"function","name":"text","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"addr","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"coinType","type":"uint256"}],"outputs":[{"name":"","type":"bytes"}]},
	{"type":"function","name":"addr","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}
]`)

var HookABI = ethcontract.MustParseABI(`[
	{"type":"function","name":"hook","stateMutability":"view","inputs":[{"name":"encodedFunction","type":"bytes"},{"name":"resolver","type":"address"},{"name":"chainId","type":"uint256"}],"outputs":[]}
]`)

func EncodeText(node common.Hash, key string) ([]byte, error) {
	return ResolverABI.Pack("text", node, key)
}

func DecodeText(data []byte) (string, error) {
	var text string
	if err := ethcoder.AbiDecodeExpr("(string)", data, []interface{}{&text}); err != nil {
		return "", fmt.Errorf("ethens: decode text: %w", err)
	}
	return text, nil
}

func EncodeAddr(node common.Hash, coinType uint64) ([]byte, error) {
	return ResolverABI.Pack("addr", node, new(big.Int).SetUint64(coinType))
}

func DecodeAddr(data []byte) ([]byte, error) {
	var addr []byte
	if err := ethcoder.AbiDecodeExpr("(bytes)", data, []interface{}{&addr}); err != nil {
		return nil, fmt.Errorf("ethens: decode addr: %w", err)
	}
	return addr, nil
}

// EncodeAddrETH encodes the legacy addr(bytes32) call.
func EncodeAddrETH(node common.Hash) ([]byte, error) {
	return ResolverABI.Pack("addr0", node)
}

type Hook struct {
	Calldata []byte
	Resolver common.Address
	ChainID  *big.Int
}

// WrapHook wraps resolver calldata in hook(bytes,address,uint256), which asks
// the universal resolver to call resolver on chainID.
func WrapHook(calldata []byte, resolver common.Address, chainID *big.Int) ([]byte, error) {
	return HookABI.Pack("hook", calldata, resolver, chainID)
}

func IsHook(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], HookABI.Methods["hook"].ID)
}

func UnwrapHook(data []byte) (Hook, error) {
	if !IsHook(data) {
		return Hook{}, fmt.Errorf("ethens: calldata is not a hook")
	}
	values, err := HookABI.Methods["hook"].Inputs.Unpack(data[4:])
	if err != nil {
		return Hook{}, fmt.Errorf("ethens: decode hook: %w", err)
	}
	return Hook{
		Calldata: values[0].([]byte),
		Resolver: values[1].(common.Address),
		ChainID:  values[2].(*big.Int),
	}, nil
}
