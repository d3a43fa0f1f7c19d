package ethrpc

import (
	"context"
	"fmt"
	"time"

	"github.com/0xsequence/urkit/ethcoder"
	"github.com/ethereum/go-ethereum/common"
)

const ENSContractAddress = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"

// ENSCacheTTL is how long a resolved ENS address stays in the provider cache.
var ENSCacheTTL = 5 * time.Minute

func ResolveEnsAddress(ctx context.Context, ens string, provider *Provider) (common.Address, bool, error) {
	// check if it's an address
	if common.IsHexAddress(ens) {
		return common.HexToAddress(ens), true, nil
	}

	chainId, err := provider.ChainID(ctx)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("ethrpc: failed to get chainId of the passed provider")
	}
	if chainId.Int64() != 1 {
		return common.Address{}, false, fmt.Errorf("ethrpc: only ENS on mainnet is supported")
	}

	namehash, err := ethcoder.NameHash(ens)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("ethrpc: failed to generate namehash: %w", err)
	}

	cacheKey := "ens:" + namehash.Hex()
	if provider.cache != nil {
		if v, ok, err := provider.cache.Get(ctx, cacheKey); err == nil && ok && len(v) == common.AddressLength {
			return common.BytesToAddress(v), true, nil
		}
	}

	resolverAddress, err := provider.contractQuery(ctx, ENSContractAddress, "resolver(bytes32)", "address", []interface{}{[32]byte(namehash)})
	if err != nil {
		return common.Address{}, false, fmt.Errorf("ethrpc: failed to query resolver address: %w", err)
	}

	if len(resolverAddress) < 1 || common.HexToAddress(resolverAddress[0]) == (common.Address{}) {
		return common.Address{}, false, nil
	}

	contractAddress, err := provider.contractQuery(ctx, resolverAddress[0], "addr(bytes32)", "address", []interface{}{[32]byte(namehash)})
	if err != nil {
		return common.Address{}, false, fmt.Errorf("ethrpc: failed to query address from resolver: %w", err)
	}

	if len(contractAddress) < 1 || common.HexToAddress(contractAddress[0]) == (common.Address{}) {
		return common.Address{}, false, nil
	}

	address := common.HexToAddress(contractAddress[0])
	if provider.cache != nil {
		if err := provider.cache.SetEx(ctx, cacheKey, address.Bytes(), ENSCacheTTL); err != nil {
			provider.log.Warn("ethrpc: failed to cache ens address", "name", ens, "err", err)
		}
	}
	return address, true, nil
}

// ResolveName forward-resolves an ENS name through the mainnet registry.
func (p *Provider) ResolveName(ctx context.Context, name string) (common.Address, bool, error) {
	return ResolveEnsAddress(ctx, name, p)
}
