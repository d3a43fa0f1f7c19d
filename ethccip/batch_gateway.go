package ethccip

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/0xsequence/urkit/ethcoder"
	"github.com/0xsequence/urkit/ethcontract"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// LocalBatchGatewayURL asks the client to answer a batch gateway query itself,
// as specified by ENSIP-21.
const LocalBatchGatewayURL = "x-batch-gateway:true"

// query((address sender, string[] urls, bytes data)[] requests) returns (bool[] failures, bytes[] responses)
var BatchGatewayQuerySelector = ethcoder.FunctionSelector("query((address,string[],bytes)[])")

var (
	batchQueryArgs = abi.Arguments{
		{Name: "requests", Type: ethcontract.MustNewTupleType("tuple[]", []abi.ArgumentMarshaling{
			{Name: "sender", Type: "address"},
			{Name: "urls", Type: "string[]"},
			{Name: "data", Type: "bytes"},
		})},
	}
	batchResultArgs = abi.Arguments{
		{Name: "failures", Type: ethcoder.MustNewType("bool[]")},
		{Name: "responses", Type: ethcoder.MustNewType("bytes[]")},
	}
)

// BatchRequest is a single lookup of a batch gateway query.
type BatchRequest struct {
	Sender common.Address
	Urls   []string
	Data   []byte
}

// EncodeBatchQuery returns the calldata of a batch gateway query.
func EncodeBatchQuery(requests []BatchRequest) ([]byte, error) {
	packed, err := batchQueryArgs.Pack(requests)
	if err != nil {
		return nil, fmt.Errorf("ethccip: failed to encode batch query: %w", err)
	}
	return append(BatchGatewayQuerySelector[:], packed...), nil
}

func DecodeBatchQuery(callData []byte) ([]BatchRequest, error) {
	if len(callData) < 4 || !bytes.Equal(callData[:4], BatchGatewayQuerySelector[:]) {
		return nil, fmt.Errorf("ethccip: calldata is not a batch gateway query")
	}
	values, err := batchQueryArgs.Unpack(callData[4:])
	if err != nil {
		return nil, fmt.Errorf("ethccip: invalid batch gateway query: %w", err)
	}
	return *abi.ConvertType(values[0], new([]BatchRequest)).(*[]BatchRequest), nil
}

// DecodeBatchResult returns the failures and responses of a batch gateway answer.
func DecodeBatchResult(data []byte) ([]bool, [][]byte, error) {
	values, err := batchResultArgs.Unpack(data)
	if err != nil {
		return nil, nil, fmt.Errorf("ethccip: invalid batch gateway result: %w", err)
	}
	return values[0].([]bool), values[1].([][]byte), nil
}

func (c *Client) localBatchGateway(ctx context.Context, callData []byte) ([]byte, error) {
	requests, err := DecodeBatchQuery(callData)
	if err != nil {
		return nil, err
	}

	failures := make([]bool, len(requests))
	responses := make([][]byte, len(requests))

	var g errgroup.Group
	for i, req := range requests {
		g.Go(func() error {
			response, err := c.fetch(ctx, req.Sender, req.Urls, req.Data, false)
			if err != nil {
				failures[i] = true
				responses[i] = encodeFailure(err)
				return nil
			}
			responses[i] = response
			return nil
		})
	}
	_ = g.Wait()

	packed, err := batchResultArgs.Pack(failures, responses)
	if err != nil {
		return nil, fmt.Errorf("ethccip: failed to encode batch result: %w", err)
	}
	return packed, nil
}

// encodeFailure renders a failed lookup as HttpError(uint16,string) or Error(string).
func encodeFailure(err error) []byte {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		if data, perr := ethcoder.AbiEncodeMethodCalldata("HttpError(uint16,string)", []interface{}{uint16(gwErr.Status), gwErr.Message}); perr == nil {
			return data
		}
	}
	data, _ := ethcoder.AbiEncodeMethodCalldata("Error(string)", []interface{}{err.Error()})
	return data
}
