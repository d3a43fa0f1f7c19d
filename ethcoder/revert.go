package ethcoder

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrUnknownRevert = errors.New("ethcoder: unknown revert selector")

var (
	errorStringSelector = [4]byte{0x08, 0xc3, 0x79, 0xa0} // Error(string)
	panicSelector       = [4]byte{0x4e, 0x48, 0x7b, 0x71} // Panic(uint256)
)

// RevertError is a decoded solidity revert.
type RevertError struct {
	Name      string
	Signature string
	Args      []interface{}
	Selector  [4]byte
	Data      []byte
}

// Error returns the error signature, ie. "ResolverNotFound(bytes)".
func (e *RevertError) Error() string {
	return e.Signature
}

// Reason returns the message of an Error(string) revert.
func (e *RevertError) Reason() (string, bool) {
	if e.Selector != errorStringSelector || len(e.Args) != 1 {
		return "", false
	}
	s, ok := e.Args[0].(string)
	return s, ok
}

// DecodeRevert decodes revert data against the errors of contractABI. Error(string)
// and Panic(uint256) are always understood, contractABI may be nil.
func DecodeRevert(contractABI *abi.ABI, data []byte) (*RevertError, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: revert data %s is too short", ErrUnknownRevert, hexutil.Encode(data))
	}
	var selector [4]byte
	copy(selector[:], data[:4])

	var (
		name    string
		sig     string
		inputs  abi.Arguments
		builtin = true
	)
	switch selector {
	case errorStringSelector:
		name, sig = "Error", "Error(string)"
		inputs = abi.Arguments{{Name: "message", Type: MustNewType("string")}}
	case panicSelector:
		name, sig = "Panic", "Panic(uint256)"
		inputs = abi.Arguments{{Name: "code", Type: MustNewType("uint256")}}
	default:
		builtin = false
	}

	if !builtin {
		if contractABI == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRevert, hexutil.Encode(data))
		}
		abiErr, err := contractABI.ErrorByID(selector)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRevert, hexutil.Encode(data))
		}
		name, sig, inputs = abiErr.Name, abiErr.Sig, abiErr.Inputs
	}

	args, err := inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("ethcoder: failed to unpack %s: %w", sig, err)
	}

	return &RevertError{
		Name:      name,
		Signature: sig,
		Args:      args,
		Selector:  selector,
		Data:      data,
	}, nil
}
