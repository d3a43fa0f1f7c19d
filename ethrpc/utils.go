package ethrpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ReceiptPollInterval is how often WaitForTxnReceipt asks the node for a receipt.
var ReceiptPollInterval = 250 * time.Millisecond

func WaitForTxnReceipt(ctx context.Context, provider Interface, txHash common.Hash) (*types.Receipt, error) {
	var clearTimeout context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		ctx, clearTimeout = context.WithTimeout(ctx, 120*time.Second) // default timeout of 120 seconds
		defer clearTimeout()
	}

	ticker := time.NewTicker(ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := provider.TransactionReceipt(ctx, txHash)
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("ethrpc: wait for receipt of %v: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}
