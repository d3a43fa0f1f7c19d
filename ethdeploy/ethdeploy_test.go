package ethdeploy_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/0xsequence/urkit/ethartifact"
	"github.com/0xsequence/urkit/ethcontract"
	"github.com/0xsequence/urkit/ethdeploy"
	"github.com/0xsequence/urkit/ethrpc"
	"github.com/0xsequence/urkit/ethwallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	ethrpc.Interface
	sent []*types.Transaction
}

func (p *fakeProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(31337), nil
}

func (p *fakeProvider) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return uint64(len(p.sent)), nil
}

func (p *fakeProvider) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (p *fakeProvider) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 1_000_000, nil
}

func (p *fakeProvider) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	p.sent = append(p.sent, tx)
	return nil
}

func (p *fakeProvider) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	for _, tx := range p.sent {
		if tx.Hash() == txHash {
			sender, _ := types.Sender(types.LatestSignerForChainID(big.NewInt(31337)), tx)
			return &types.Receipt{
				Status:          types.ReceiptStatusSuccessful,
				TxHash:          txHash,
				ContractAddress: crypto.CreateAddress(sender, tx.Nonce()),
			}, nil
		}
	}
	return nil, ethereum.NotFound
}

var registryABI = ethcontract.MustParseABI(`[
	{"type":"constructor","inputs":[{"name":"registry","type":"address"},{"name":"gateways","type":"string[]"}]}
]`)

func TestDeployLinksAndPacksArgs(t *testing.T) {
	wallet, err := ethwallet.NewWalletFromMnemonic(ethwallet.DevMnemonic)
	require.NoError(t, err)
	provider := &fakeProvider{}
	wallet.SetProvider(provider)

	lib := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	artifact := ethartifact.Artifact{
		ContractName: "UR",
		ABI:          registryABI,
		Bytecode:     "0x73" + ethartifact.Placeholder("src/HookVerifier.sol:HookVerifier") + "00",
		LinkReferences: ethartifact.LinkReferences{
			"src/HookVerifier.sol": {"HookVerifier": {{Start: 1, Length: 20}}},
		},
	}

	deployer := ethdeploy.NewDeployer(wallet)

	_, _, err = deployer.Deploy(context.Background(), artifact, ethdeploy.DeployOptions{})
	assert.Error(t, err, "library is not provided")

	ensRegistry := common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")
	gateways := []string{"https://example.com/{sender}/{data}"}
	contract, receipt, err := deployer.Deploy(context.Background(), artifact, ethdeploy.DeployOptions{
		Args:      []interface{}{ensRegistry, gateways},
		Libraries: map[string]common.Address{"HookVerifier": lib},
	})
	require.NoError(t, err)
	require.Len(t, provider.sent, 1)

	assert.Equal(t, crypto.CreateAddress(wallet.Address(), 0), contract.Address)
	assert.Equal(t, receipt.ContractAddress, contract.Address)

	data := provider.sent[0].Data()
	assert.Equal(t, lib.Bytes(), data[1:21])

	args, err := registryABI.Constructor.Inputs.Unpack(data[22:])
	require.NoError(t, err)
	assert.Equal(t, ensRegistry, args[0])
	assert.Equal(t, gateways, args[1])
}

func TestDeployRequiresProvider(t *testing.T) {
	wallet, err := ethwallet.NewWalletFromMnemonic(ethwallet.DevMnemonic)
	require.NoError(t, err)

	_, _, err = ethdeploy.NewDeployer(wallet).Deploy(context.Background(), ethartifact.Artifact{ContractName: "X", Bin: []byte{0x00}}, ethdeploy.DeployOptions{})
	assert.Error(t, err)
}
