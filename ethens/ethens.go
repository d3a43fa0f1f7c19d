package ethens

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/0xsequence/urkit/ethcoder"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	RegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")
	ENSTokenAddress = common.HexToAddress("0xc18360217d8f7ab5e7c516566761ea12ce7f9d72")

	DefaultGateways = []string{"https://ccip-v2.ens.xyz"}
)

var (
	ErrResolverError = errors.New("ethens: resolver error")
	ErrUnknownError  = errors.New("ethens: unknown error")
)

// StorageWriter writes raw contract storage, ie. *ethrpc.Provider on anvil.
type StorageWriter interface {
	SetStorageAt(ctx context.Context, account common.Address, slot *big.Int, value common.Hash) error
}

// RecordSlot is the storage slot of records[node] in the ENS registry, whose
// records mapping is declared first.
func RecordSlot(node common.Hash) common.Hash {
	slot, err := ethcoder.SolidityPackedKeccak256([]string{"bytes32", "uint256"}, []interface{}{node, new(big.Int)})
	if err != nil {
		panic(err) // static types
	}
	return slot
}

// ResolverSlot is the slot of records[node].resolver, the word after the owner.
func ResolverSlot(node common.Hash) *big.Int {
	slot := new(uint256.Int).SetBytes32(RecordSlot(node).Bytes())
	slot.AddUint64(slot, 1)
	return slot.ToBig()
}

// HijackResolver points name at resolver by writing the storage of registry
// directly, ie. RegistryAddress on a mainnet fork.
func HijackResolver(ctx context.Context, w StorageWriter, registry common.Address, name string, resolver common.Address) error {
	node, err := ethcoder.NameHash(name)
	if err != nil {
		return fmt.Errorf("ethens: %w", err)
	}
	word := common.BytesToHash(resolver.Bytes())
	if err := w.SetStorageAt(ctx, registry, ResolverSlot(node), word); err != nil {
		return fmt.Errorf("ethens: set resolver of %s: %w", name, err)
	}
	return nil
}
