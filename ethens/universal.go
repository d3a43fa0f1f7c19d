package ethens

import (
	"context"
	"fmt"
	"math/big"
	"reflect"

	"github.com/0xsequence/urkit/ethccip"
	"github.com/0xsequence/urkit/ethcoder"
	"github.com/0xsequence/urkit/ethcontract"
	"github.com/0xsequence/urkit/ethrpc"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// UniversalResolverABI is used when no compiled artifact is at hand. Deployed
// artifacts should be preferred, their error set is what revert data is
// decoded against.
var UniversalResolverABI = ethcontract.MustParseABI(`[
	{"type":"function","name":"resolve","stateMutability":"view",
	 "inputs":[{"name":"name","type":"bytes"},{"name":"calls","type":"bytes[]"},{"name":"gateways","type":"string[]"}],
	 "outputs":[
		{"name":"lookup","type":"tuple","components":[
			{"name":"dns","type":"bytes"},
			{"name":"offset","type":"uint256"},
			{"name":"node","type":"bytes32"},
			{"name":"resolver","type":"address"},
			{"name":"extended","type":"bool"}
		]},
		{"name":"responses","type":"tuple[]","components":[
			{"name":"bits","type":"uint256"},
			{"name":"data","type":"bytes"}
		]}
	 ]},
	{"type":"error","name":"ResolverNotFound","inputs":[{"name":"name","type":"bytes"}]},
	{"type":"error","name":"ResolverNotContract","inputs":[{"name":"name","type":"bytes"},{"name":"resolver","type":"address"}]},
	{"type":"error","name":"UnsupportedResolverProfile","inputs":[{"name":"selector","type":"bytes4"}]},
	{"type":"error","name":"ResolverError","inputs":[{"name":"errorData","type":"bytes"}]},
	{"type":"error","name":"HttpError","inputs":[{"name":"status","type":"uint16"},{"name":"message","type":"string"}]}
]`)

// Response bits
const (
	BitError    = 1 << 0 // Data is revert data
	BitOffchain = 1 << 1 // answered through CCIP-Read
)

type Response struct {
	Bits *big.Int
	Data []byte
}

func (r Response) IsError() bool {
	return r.Bits != nil && r.Bits.Bit(0) == 1
}

func (r Response) IsOffchain() bool {
	return r.Bits != nil && r.Bits.Bit(1) == 1
}

// Err decodes the revert data of a failed response against contractABI. It
// returns nil for successful responses.
func (r Response) Err(contractABI *abi.ABI) error {
	if !r.IsError() {
		return nil
	}
	return decodeError(contractABI, r.Data)
}

// Lookup is the resolver lookup of a resolve call, keyed by the tuple field
// names of the contract abi.
type Lookup map[string]interface{}

func (l Lookup) Resolver() common.Address {
	addr, _ := l["resolver"].(common.Address)
	return addr
}

func (l Lookup) Node() common.Hash {
	if node, ok := l["node"].([32]byte); ok {
		return node
	}
	return common.Hash{}
}

type Result struct {
	Lookup    Lookup
	Responses []Response
}

// UniversalResolver resolves names through a deployed universal resolver with
// CCIP-Read enabled.
type UniversalResolver struct {
	Address common.Address
	ABI     abi.ABI

	caller ethccip.Caller
	ccip   *ethccip.Client
}

// NewUniversalResolver uses UniversalResolverABI when contractABI is nil.
func NewUniversalResolver(address common.Address, contractABI *abi.ABI, caller ethccip.Caller, ccip *ethccip.Client) *UniversalResolver {
	ur := &UniversalResolver{Address: address, ABI: UniversalResolverABI, caller: caller, ccip: ccip}
	if contractABI != nil {
		ur.ABI = *contractABI
	}
	if ur.ccip == nil {
		ur.ccip = ethccip.NewClient()
	}
	return ur
}

// Resolve runs resolve(dnsEncode(name), calls, gateways). A revert of the call
// itself is returned as ErrResolverError or ErrUnknownError, failures of single
// calls are reported through Response.Err.
func (u *UniversalResolver) Resolve(ctx context.Context, name string, calls [][]byte, gateways []string) (*Result, error) {
	dnsName, err := ethcoder.DNSEncode(name, 255)
	if err != nil {
		return nil, fmt.Errorf("ethens: %w", err)
	}
	if gateways == nil {
		gateways = []string{}
	}

	calldata, err := u.ABI.Pack("resolve", dnsName, calls, gateways)
	if err != nil {
		return nil, fmt.Errorf("ethens: encode resolve: %w", err)
	}

	to := u.Address
	out, err := u.ccip.Call(ctx, u.caller, ethereum.CallMsg{To: &to, Data: calldata})
	if err != nil {
		if revertData, ok := ethrpc.RevertData(err); ok {
			return nil, decodeError(&u.ABI, revertData)
		}
		return nil, fmt.Errorf("ethens: resolve %s: %w", name, err)
	}

	return u.decodeResult(out)
}

// ResolveText resolves a single text record.
func (u *UniversalResolver) ResolveText(ctx context.Context, name, key string) (string, error) {
	data, err := u.resolveOne(ctx, name, func(node common.Hash) ([]byte, error) {
		return EncodeText(node, key)
	})
	if err != nil {
		return "", err
	}
	return DecodeText(data)
}

// ResolveAddr resolves the address of name for a SLIP-44 coin type.
func (u *UniversalResolver) ResolveAddr(ctx context.Context, name string, coinType uint64) ([]byte, error) {
	data, err := u.resolveOne(ctx, name, func(node common.Hash) ([]byte, error) {
		return EncodeAddr(node, coinType)
	})
	if err != nil {
		return nil, err
	}
	return DecodeAddr(data)
}

func (u *UniversalResolver) resolveOne(ctx context.Context, name string, encode func(node common.Hash) ([]byte, error)) ([]byte, error) {
	node, err := ethcoder.NameHash(name)
	if err != nil {
		return nil, fmt.Errorf("ethens: %w", err)
	}
	call, err := encode(node)
	if err != nil {
		return nil, err
	}
	result, err := u.Resolve(ctx, name, [][]byte{call}, nil)
	if err != nil {
		return nil, err
	}
	if len(result.Responses) != 1 {
		return nil, fmt.Errorf("ethens: expected 1 response, got %d", len(result.Responses))
	}
	if err := result.Responses[0].Err(&u.ABI); err != nil {
		return nil, err
	}
	return result.Responses[0].Data, nil
}

func (u *UniversalResolver) decodeResult(data []byte) (*Result, error) {
	method, ok := u.ABI.Methods["resolve"]
	if !ok {
		return nil, fmt.Errorf("ethens: abi has no resolve method")
	}
	values, err := method.Outputs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("ethens: decode resolve result: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("ethens: resolve returned %d values", len(values))
	}

	result := &Result{Lookup: tupleToLookup(method.Outputs[0].Type, values[0])}

	responses, ok := abi.ConvertType(values[1], new([]Response)).(*[]Response)
	if !ok {
		return nil, fmt.Errorf("ethens: unexpected responses type %T", values[1])
	}
	result.Responses = *responses
	return result, nil
}

func tupleToLookup(typ abi.Type, value interface{}) Lookup {
	lookup := Lookup{}
	v := reflect.ValueOf(value)
	if typ.T != abi.TupleTy || v.Kind() != reflect.Struct {
		return lookup
	}
	for i, name := range typ.TupleRawNames {
		if i < v.NumField() {
			lookup[name] = v.Field(i).Interface()
		}
	}
	return lookup
}

func decodeError(contractABI *abi.ABI, data []byte) error {
	revertErr, err := ethcoder.DecodeRevert(contractABI, data)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownError, hexutil.Encode(data))
	}
	return fmt.Errorf("%w: %w", ErrResolverError, revertErr)
}
