package ethdeploy

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/0xsequence/urkit/ethartifact"
	"github.com/0xsequence/urkit/ethcontract"
	"github.com/0xsequence/urkit/ethtxn"
	"github.com/0xsequence/urkit/ethwallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Deploy any contract artifact, linking its libraries first
//
// Sample usage:
//
//	deployer := ethdeploy.NewDeployer(wallet)
//	hookVerifier, _, err := deployer.Deploy(ctx, registry.MustGet("HookVerifier"), ethdeploy.DeployOptions{})
//	ur, receipt, err := deployer.Deploy(ctx, registry.MustGet("UR"), ethdeploy.DeployOptions{
//		Args:      []interface{}{ensRegistry, []string{"https://gateway.example/{sender}/{data}"}},
//		Libraries: map[string]common.Address{"HookVerifier": hookVerifier.Address},
//	})
type Deployer struct {
	wallet *ethwallet.Wallet
	log    *slog.Logger
}

type DeployOptions struct {
	// Args are the constructor arguments.
	Args []interface{}

	// Libraries maps library names, or "file:name", to deployed addresses.
	Libraries map[string]common.Address

	Value    *big.Int
	GasLimit uint64
}

func NewDeployer(wallet *ethwallet.Wallet, log ...*slog.Logger) *Deployer {
	d := &Deployer{wallet: wallet, log: slog.New(slog.DiscardHandler)}
	if len(log) > 0 && log[0] != nil {
		d.log = log[0]
	}
	return d
}

func (d *Deployer) Deploy(ctx context.Context, artifact ethartifact.Artifact, opts DeployOptions) (*ethcontract.Contract, *types.Receipt, error) {
	if d.wallet == nil || d.wallet.GetProvider() == nil {
		return nil, nil, fmt.Errorf("ethdeploy: wallet with a provider is required")
	}

	if artifact.NeedsLinking() {
		linked, err := artifact.Link(opts.Libraries)
		if err != nil {
			return nil, nil, fmt.Errorf("ethdeploy: %w", err)
		}
		artifact = linked
	}
	if len(artifact.Bin) == 0 {
		return nil, nil, fmt.Errorf("ethdeploy: %s has no bytecode", artifact.ContractName)
	}

	input, err := artifact.ABI.Pack("", opts.Args...)
	if err != nil {
		return nil, nil, fmt.Errorf("ethdeploy: %s constructor: %w", artifact.ContractName, err)
	}
	data := append(append([]byte{}, artifact.Bin...), input...)

	signedTx, err := d.wallet.NewTransaction(ctx, &ethtxn.TransactionRequest{
		Data:     data,
		ETHValue: opts.Value,
		GasLimit: opts.GasLimit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("ethdeploy: %s: %w", artifact.ContractName, err)
	}

	_, waitReceipt, err := d.wallet.SendTransaction(ctx, signedTx)
	if err != nil {
		return nil, nil, fmt.Errorf("ethdeploy: %s: %w", artifact.ContractName, err)
	}
	receipt, err := waitReceipt(ctx)
	if err != nil {
		return nil, receipt, fmt.Errorf("ethdeploy: %s: %w", artifact.ContractName, err)
	}

	d.log.Debug("ethdeploy: deployed", "contract", artifact.ContractName, "address", receipt.ContractAddress, "gasUsed", receipt.GasUsed)

	return ethcontract.NewContract(receipt.ContractAddress, artifact.ABI), receipt, nil
}
