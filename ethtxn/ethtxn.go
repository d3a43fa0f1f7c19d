package ethtxn

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/0xsequence/urkit/ethrpc"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrTxnFailed = errors.New("ethtxn: transaction failed")

type TransactionRequest struct {
	// Ethereum account to send the transaction from. Optional, will automatically be set.
	From common.Address

	// To is the recipient address, can be account, contract or nil. If `to` is nil, it will assume contract creation
	To *common.Address

	// Nonce is the nonce of the transaction for the sender. If this value is left empty (nil), it will
	// automatically be assigned.
	Nonce *big.Int

	// GasLimit is the total gas the transaction is expected the consume. If this value is left empty (0), it will
	// automatically be estimated and assigned.
	GasLimit uint64

	// GasPrice (in WEI) offering to pay for per unit of gas. If this value is left empty (nil), it will
	// automatically be sampled and assigned.
	// Used as GasFeeCap when GasTip is set.
	GasPrice *big.Int

	// GasTip (in WEI) optional offering to pay for per unit of gas to the miner.
	// If this value is left empty (nil), it will be considered a pre-EIP1559 or "legacy" transaction
	GasTip *big.Int

	// ETHValue (in WEI) amount of ETH currency to send with this transaction. Optional.
	ETHValue *big.Int

	// Data is calldata / input when calling or creating a contract. Optional.
	Data []byte
}

type WaitReceipt func(ctx context.Context) (*types.Receipt, error)

// NewTransaction prepares a transaction for delivery, however the transaction still needs to be signed
// before it can be sent.
func NewTransaction(ctx context.Context, provider ethrpc.Interface, txnRequest *TransactionRequest) (*types.Transaction, error) {
	if txnRequest == nil {
		return nil, fmt.Errorf("ethtxn: txnRequest is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("ethtxn: provider is not set")
	}
	if txnRequest.To == nil && len(txnRequest.Data) == 0 {
		return nil, fmt.Errorf("ethtxn: contract creation txn request requires data field")
	}

	if txnRequest.Nonce == nil {
		nonce, err := provider.PendingNonceAt(ctx, txnRequest.From)
		if err != nil {
			return nil, fmt.Errorf("ethtxn: failed to get pending nonce: %w", err)
		}
		txnRequest.Nonce = new(big.Int).SetUint64(nonce)
	}

	if txnRequest.GasPrice == nil {
		// Get suggested gas price, the user can change this on their own too
		gasPrice, err := provider.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("ethtxn: %w", err)
		}
		txnRequest.GasPrice = gasPrice
	}

	if txnRequest.GasLimit == 0 {
		callMsg := ethereum.CallMsg{
			From:     txnRequest.From,
			To:       txnRequest.To,
			Gas:      0, // estimating this value
			GasPrice: txnRequest.GasPrice,
			Value:    txnRequest.ETHValue,
			Data:     txnRequest.Data,
		}

		gasLimit, err := provider.EstimateGas(ctx, callMsg)
		if err != nil {
			return nil, fmt.Errorf("ethtxn: estimate gas: %w", err)
		}
		txnRequest.GasLimit = gasLimit
	}

	value := txnRequest.ETHValue
	if value == nil {
		value = new(big.Int)
	}

	if txnRequest.GasTip != nil {
		chainID, err := provider.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			To:        txnRequest.To,
			Nonce:     txnRequest.Nonce.Uint64(),
			Value:     value,
			GasFeeCap: txnRequest.GasPrice,
			GasTipCap: txnRequest.GasTip,
			Data:      txnRequest.Data,
			Gas:       txnRequest.GasLimit,
		}), nil
	}

	return types.NewTx(&types.LegacyTx{
		To:       txnRequest.To,
		Gas:      txnRequest.GasLimit,
		GasPrice: txnRequest.GasPrice,
		Data:     txnRequest.Data,
		Nonce:    txnRequest.Nonce.Uint64(),
		Value:    value,
	}), nil
}

func SendTransaction(ctx context.Context, provider ethrpc.Interface, signedTx *types.Transaction) (*types.Transaction, WaitReceipt, error) {
	if provider == nil {
		return nil, nil, fmt.Errorf("ethtxn (SendTransaction): provider is not set")
	}

	waitFn := func(ctx context.Context) (*types.Receipt, error) {
		return WaitForReceipt(ctx, provider, signedTx.Hash())
	}

	return signedTx, waitFn, provider.SendTransaction(ctx, signedTx)
}

// WaitForReceipt blocks until the transaction is mined. A mined transaction which
// reverted returns its receipt along with ErrTxnFailed.
func WaitForReceipt(ctx context.Context, provider ethrpc.Interface, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := ethrpc.WaitForTxnReceipt(ctx, provider, txHash)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %v", ErrTxnFailed, txHash)
	}
	return receipt, nil
}
