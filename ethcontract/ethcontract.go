package ethcontract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/0xsequence/urkit/ethcoder"
	"github.com/0xsequence/urkit/ethrpc"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller executes eth_call against the latest block. *ethrpc.Provider and
// the ccip-read client both satisfy it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNum *big.Int) ([]byte, error)
}

type Contract struct {
	Address common.Address
	ABI     abi.ABI
}

func NewContract(address common.Address, contractABI abi.ABI) *Contract {
	return &Contract{Address: address, ABI: contractABI}
}

func (c *Contract) Encode(method string, args ...interface{}) ([]byte, error) {
	m, ok := c.ABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("contract method %s not found", method)
	}
	input, err := m.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("contract method %s: %w", method, err)
	}
	return append(append([]byte{}, m.ID...), input...), nil
}

// Decode unpacks the return data of method into out, a pointer to a struct
// or to a single value. A nil out is allowed when the caller only wants the
// call to succeed.
func (c *Contract) Decode(out interface{}, method string, data []byte) error {
	m, ok := c.ABI.Methods[method]
	if !ok {
		return fmt.Errorf("contract method %s not found", method)
	}
	if out == nil {
		return nil
	}
	values, err := m.Outputs.Unpack(data)
	if err != nil {
		return fmt.Errorf("contract method %s: %w", method, err)
	}
	if err := m.Outputs.Copy(out, values); err != nil {
		return fmt.Errorf("contract method %s: %w", method, err)
	}
	return nil
}

// Call runs method through caller and decodes the result into out. A revert
// comes back as a *ethcoder.RevertError decoded against the contract abi.
func (c *Contract) Call(ctx context.Context, caller Caller, out interface{}, method string, args ...interface{}) error {
	calldata, err := c.Encode(method, args...)
	if err != nil {
		return err
	}

	to := c.Address
	data, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: calldata}, nil)
	if err != nil {
		if revertData, ok := ethrpc.RevertData(err); ok {
			if revertErr, decodeErr := ethcoder.DecodeRevert(&c.ABI, revertData); decodeErr == nil {
				return revertErr
			}
		}
		return err
	}
	return c.Decode(out, method, data)
}
