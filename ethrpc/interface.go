package ethrpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Standard Ethereum JSON-RPC methods used by the toolkit:
// https://ethereum.org/en/developers/docs/apis/json-rpc/
//
// eth_chainId
// eth_blockNumber
// eth_getBalance
// eth_getStorageAt
// eth_getTransactionCount
// eth_getCode
// eth_gasPrice
// eth_sendRawTransaction
// eth_call
// eth_estimateGas
// eth_getTransactionReceipt

type Interface interface {
	// ..
	Do(ctx context.Context, calls ...Call) error

	// ChainID = eth_chainId
	ChainID(ctx context.Context) (*big.Int, error)

	// BlockNumber = eth_blockNumber
	BlockNumber(ctx context.Context) (uint64, error)

	// TransactionReceipt = eth_getTransactionReceipt
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// BalanceAt = eth_getBalance
	BalanceAt(ctx context.Context, account common.Address, blockNum *big.Int) (*big.Int, error)

	// StorageAt = eth_getStorageAt
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNum *big.Int) ([]byte, error)

	// CodeAt = eth_getCode
	CodeAt(ctx context.Context, account common.Address, blockNum *big.Int) ([]byte, error)

	// NonceAt = eth_getTransactionCount
	NonceAt(ctx context.Context, account common.Address, blockNum *big.Int) (uint64, error)

	// PendingNonceAt = eth_getTransactionCount ("pending")
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// CallContract = eth_call (blockNumber)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNum *big.Int) ([]byte, error)

	// SuggestGasPrice = eth_gasPrice
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// EstimateGas = eth_estimateGas
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)

	// SendTransaction = eth_sendRawTransaction
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// SendRawTransaction = eth_sendRawTransaction
	SendRawTransaction(ctx context.Context, signedTxHex string) (common.Hash, error)

	// ContractQuery = eth_call with abi expressions
	ContractQuery(ctx context.Context, contractAddress string, inputAbiExpr, outputAbiExpr string, args interface{}) ([]string, error)
}

// DevInterface adds the dev node methods of anvil and hardhat.
type DevInterface interface {
	Interface

	SetStorageAt(ctx context.Context, account common.Address, slot *big.Int, value common.Hash) error
	SetCode(ctx context.Context, account common.Address, code []byte) error
	SetBalance(ctx context.Context, account common.Address, balance *big.Int) error
	Mine(ctx context.Context, blocks uint64) error
	ImpersonateAccount(ctx context.Context, account common.Address) error
	StopImpersonatingAccount(ctx context.Context, account common.Address) error
	Snapshot(ctx context.Context) (string, error)
	Revert(ctx context.Context, snapshotID string) (bool, error)
}

var _ DevInterface = (*Provider)(nil)
