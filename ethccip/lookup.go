package ethccip

import (
	"bytes"
	"fmt"

	"github.com/0xsequence/urkit/ethcoder"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// OffchainLookup(address sender, string[] urls, bytes callData, bytes4 callbackFunction, bytes extraData)
var OffchainLookupSelector = [4]byte{0x55, 0x6f, 0x18, 0x30}

var offchainLookupArgs = abi.Arguments{
	{Name: "sender", Type: ethcoder.MustNewType("address")},
	{Name: "urls", Type: ethcoder.MustNewType("string[]")},
	{Name: "callData", Type: ethcoder.MustNewType("bytes")},
	{Name: "callbackFunction", Type: ethcoder.MustNewType("bytes4")},
	{Name: "extraData", Type: ethcoder.MustNewType("bytes")},
}

var callbackArgs = abi.Arguments{
	{Name: "response", Type: ethcoder.MustNewType("bytes")},
	{Name: "extraData", Type: ethcoder.MustNewType("bytes")},
}

// OffchainLookup is the EIP-3668 revert asking the client to fetch CallData
// from one of URLs and call CallbackFunction on Sender with the result.
type OffchainLookup struct {
	Sender           common.Address
	URLs             []string
	CallData         []byte
	CallbackFunction [4]byte
	ExtraData        []byte
}

func IsOffchainLookup(revertData []byte) bool {
	return len(revertData) >= 4 && bytes.Equal(revertData[:4], OffchainLookupSelector[:])
}

func ParseOffchainLookup(revertData []byte) (*OffchainLookup, error) {
	if !IsOffchainLookup(revertData) {
		return nil, ErrNotOffchainLookup
	}
	values, err := offchainLookupArgs.Unpack(revertData[4:])
	if err != nil {
		return nil, fmt.Errorf("ethccip: invalid OffchainLookup: %w", err)
	}

	lookup := &OffchainLookup{
		Sender:           values[0].(common.Address),
		URLs:             values[1].([]string),
		CallData:         values[2].([]byte),
		CallbackFunction: values[3].([4]byte),
		ExtraData:        values[4].([]byte),
	}
	return lookup, nil
}

// Encode returns the revert data of the lookup.
func (l *OffchainLookup) Encode() ([]byte, error) {
	packed, err := offchainLookupArgs.Pack(l.Sender, l.URLs, l.CallData, l.CallbackFunction, l.ExtraData)
	if err != nil {
		return nil, fmt.Errorf("ethccip: failed to encode OffchainLookup: %w", err)
	}
	return append(OffchainLookupSelector[:], packed...), nil
}

// CallbackData is the calldata of callbackFunction(response, extraData).
func (l *OffchainLookup) CallbackData(response []byte) ([]byte, error) {
	packed, err := callbackArgs.Pack(response, l.ExtraData)
	if err != nil {
		return nil, fmt.Errorf("ethccip: failed to encode callback: %w", err)
	}
	return append(l.CallbackFunction[:], packed...), nil
}
