package ethrpc

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Dev node methods, as served by anvil and hardhat. The method namespace is
// the provider's cheat code prefix, see WithCheatCodePrefix.

func SetStorageAt(prefix string, account common.Address, slot *big.Int, value common.Hash) CallBuilder[bool] {
	return CallBuilder[bool]{
		method: prefix + "_setStorageAt",
		params: []any{account, hexutil.EncodeBig(slot), value},
		intoFn: intoBoolOrNull,
	}
}

func SetCode(prefix string, account common.Address, code []byte) CallBuilder[bool] {
	return CallBuilder[bool]{
		method: prefix + "_setCode",
		params: []any{account, hexutil.Bytes(code)},
		intoFn: intoBoolOrNull,
	}
}

func SetBalance(prefix string, account common.Address, balance *big.Int) CallBuilder[bool] {
	return CallBuilder[bool]{
		method: prefix + "_setBalance",
		params: []any{account, (*hexutil.Big)(balance)},
		intoFn: intoBoolOrNull,
	}
}

func Mine(prefix string, blocks uint64) CallBuilder[bool] {
	return CallBuilder[bool]{
		method: prefix + "_mine",
		params: []any{hexutil.Uint64(blocks)},
		intoFn: intoBoolOrNull,
	}
}

func ImpersonateAccount(prefix string, account common.Address) CallBuilder[bool] {
	return CallBuilder[bool]{
		method: prefix + "_impersonateAccount",
		params: []any{account},
		intoFn: intoBoolOrNull,
	}
}

func StopImpersonatingAccount(prefix string, account common.Address) CallBuilder[bool] {
	return CallBuilder[bool]{
		method: prefix + "_stopImpersonatingAccount",
		params: []any{account},
		intoFn: intoBoolOrNull,
	}
}

func Snapshot() CallBuilder[string] {
	return CallBuilder[string]{
		method: "evm_snapshot",
	}
}

func Revert(snapshotID string) CallBuilder[bool] {
	return CallBuilder[bool]{
		method: "evm_revert",
		params: []any{snapshotID},
		intoFn: intoBoolOrNull,
	}
}

// anvil answers null for most setters, hardhat answers true
func intoBoolOrNull(raw json.RawMessage, ret *bool) error {
	if len(raw) == 0 || string(raw) == "null" {
		*ret = true
		return nil
	}
	return json.Unmarshal(raw, ret)
}

func (p *Provider) SetStorageAt(ctx context.Context, account common.Address, slot *big.Int, value common.Hash) error {
	p.log.Debug("ethrpc: set storage", "account", account, "slot", hexutil.EncodeBig(slot), "value", value)
	return p.Do(ctx, SetStorageAt(p.cheatPrefix, account, slot, value).Into(nil))
}

func (p *Provider) SetCode(ctx context.Context, account common.Address, code []byte) error {
	return p.Do(ctx, SetCode(p.cheatPrefix, account, code).Into(nil))
}

func (p *Provider) SetBalance(ctx context.Context, account common.Address, balance *big.Int) error {
	return p.Do(ctx, SetBalance(p.cheatPrefix, account, balance).Into(nil))
}

func (p *Provider) Mine(ctx context.Context, blocks uint64) error {
	return p.Do(ctx, Mine(p.cheatPrefix, blocks).Into(nil))
}

func (p *Provider) ImpersonateAccount(ctx context.Context, account common.Address) error {
	return p.Do(ctx, ImpersonateAccount(p.cheatPrefix, account).Into(nil))
}

func (p *Provider) StopImpersonatingAccount(ctx context.Context, account common.Address) error {
	return p.Do(ctx, StopImpersonatingAccount(p.cheatPrefix, account).Into(nil))
}

// Snapshot returns the id of a new evm snapshot, to be passed to Revert.
func (p *Provider) Snapshot(ctx context.Context) (string, error) {
	var id string
	err := p.Do(ctx, Snapshot().Into(&id))
	return id, err
}

func (p *Provider) Revert(ctx context.Context, snapshotID string) (bool, error) {
	var ok bool
	err := p.Do(ctx, Revert(snapshotID).Into(&ok))
	return ok, err
}
