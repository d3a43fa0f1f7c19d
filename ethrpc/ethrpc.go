package ethrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/0xsequence/urkit/ethcoder"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	cachestore "github.com/goware/cachestore2"
)

type Provider struct {
	log        *slog.Logger
	nodeURL    string
	httpClient httpClient
	br         Breaker
	cache      cachestore.Store[[]byte]

	// cheatPrefix is the namespace of dev node methods, ie. "anvil" or "hardhat"
	cheatPrefix string

	chainID   *big.Int
	chainIDMu sync.Mutex
	lastID    uint32
}

func NewProvider(nodeURL string, options ...Option) (*Provider, error) {
	if nodeURL == "" {
		return nil, fmt.Errorf("ethrpc: node url is empty")
	}
	p := &Provider{
		log:         slog.New(slog.DiscardHandler),
		nodeURL:     nodeURL,
		httpClient:  http.DefaultClient,
		cheatPrefix: "anvil",
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

var (
	ErrNotFound      = ethereum.NotFound
	ErrEmptyResponse = errors.New("ethrpc: empty response")
	ErrHTTPStatus    = errors.New("ethrpc: unexpected http status")
)

func (p *Provider) NodeURL() string {
	return p.nodeURL
}

func (p *Provider) Do(ctx context.Context, calls ...Call) error {
	if len(calls) == 0 {
		return nil
	}

	batch := make(BatchCall, 0, len(calls))
	for i, call := range calls {
		call := call
		if call.err != nil {
			return fmt.Errorf("call %d has an error: %w", i, call.err)
		}

		call.request.ID = uint64(atomic.AddUint32(&p.lastID, 1))
		batch = append(batch, &call)
	}

	b, err := batch.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal JSONRPC request: %w", err)
	}

	p.log.Debug("ethrpc: request", "method", batch[0].request.Method, "batch", len(batch))

	var body []byte
	send := func() error {
		body, err = p.send(ctx, b)
		return err
	}
	if p.br != nil {
		err = p.br.Do(ctx, send)
	} else {
		err = send()
	}
	if err != nil {
		return err
	}

	if err := jsonUnmarshaler(body, &batch); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	for i, call := range batch {
		if call.err != nil {
			continue
		}

		if call.response == nil {
			call.err = ErrEmptyResponse
			continue
		}

		if calls[i].resultFn == nil {
			// expecting no result, so we skip
			continue
		}

		if err := calls[i].resultFn(call.response.Result); err != nil {
			call.err = err
			continue
		}
	}

	return batch.ErrorOrNil()
}

func (p *Provider) send(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.nodeURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize http.Request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// nodes answer JSON-RPC errors with a 200, or with 4xx/5xx and a JSON body
	if res.StatusCode != http.StatusOK && !isJSON(body) {
		return nil, fmt.Errorf("%w: %d", ErrHTTPStatus, res.StatusCode)
	}
	return body, nil
}

func isJSON(body []byte) bool {
	body = bytes.TrimSpace(body)
	return len(body) > 0 && (body[0] == '{' || body[0] == '[')
}

var _ Interface = (*Provider)(nil)

func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) {
	p.chainIDMu.Lock()
	defer p.chainIDMu.Unlock()
	if p.chainID != nil {
		// chainID is memoized
		return p.chainID, nil
	}
	var ret *big.Int
	err := p.Do(ctx, ChainID().Into(&ret))
	if err != nil {
		return nil, err
	}
	p.chainID = ret
	return ret, nil
}

func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	var ret uint64
	err := p.Do(ctx, BlockNumber().Into(&ret))
	return ret, err
}

func (p *Provider) BalanceAt(ctx context.Context, account common.Address, blockNum *big.Int) (*big.Int, error) {
	var ret *big.Int
	err := p.Do(ctx, BalanceAt(account, blockNum).Into(&ret))
	return ret, err
}

func (p *Provider) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return p.Do(ctx, SendTransaction(tx))
}

func (p *Provider) SendRawTransaction(ctx context.Context, signedTxHex string) (common.Hash, error) {
	var txnHash common.Hash
	err := p.Do(ctx, SendRawTransaction(signedTxHex).Into(&txnHash))
	return txnHash, err
}

func (p *Provider) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := p.Do(ctx, TransactionReceipt(txHash).Into(&receipt))
	if err == nil && receipt == nil {
		return nil, ethereum.NotFound
	}
	return receipt, err
}

func (p *Provider) StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNum *big.Int) ([]byte, error) {
	var result []byte
	err := p.Do(ctx, StorageAt(account, key, blockNum).Into(&result))
	return result, err
}

func (p *Provider) CodeAt(ctx context.Context, account common.Address, blockNum *big.Int) ([]byte, error) {
	var result []byte
	err := p.Do(ctx, CodeAt(account, blockNum).Into(&result))
	return result, err
}

func (p *Provider) NonceAt(ctx context.Context, account common.Address, blockNum *big.Int) (uint64, error) {
	var result uint64
	err := p.Do(ctx, NonceAt(account, blockNum).Into(&result))
	return result, err
}

func (p *Provider) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var result uint64
	err := p.Do(ctx, PendingNonceAt(account).Into(&result))
	return result, err
}

func (p *Provider) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNum *big.Int) ([]byte, error) {
	var result []byte
	err := p.Do(ctx, CallContract(msg, blockNum).Into(&result))
	return result, err
}

func (p *Provider) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var ret *big.Int
	err := p.Do(ctx, SuggestGasPrice().Into(&ret))
	return ret, err
}

func (p *Provider) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var result uint64
	err := p.Do(ctx, EstimateGas(msg).Into(&result))
	return result, err
}

// ie, ContractQuery(context.Background(), "0xabcdef..", "balanceOf(uint256)", "uint256", []string{"1"})
func (p *Provider) ContractQuery(ctx context.Context, contractAddress string, inputAbiExpr, outputAbiExpr string, args interface{}) ([]string, error) {
	if !common.IsHexAddress(contractAddress) {
		// Check for ens
		ensAddress, ok, err := ResolveEnsAddress(ctx, contractAddress, p)
		if err != nil {
			return nil, fmt.Errorf("ethrpc: contract address is not a valid address or an ens domain %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("ethrpc: no address for %q", contractAddress)
		}
		contractAddress = ensAddress.Hex()
	}

	return p.contractQuery(ctx, contractAddress, inputAbiExpr, outputAbiExpr, args)
}

func (p *Provider) contractQuery(ctx context.Context, contractAddress string, inputAbiExpr, outputAbiExpr string, args interface{}) ([]string, error) {
	contract := common.HexToAddress(contractAddress)

	var (
		calldata []byte
		err      error
	)

	switch args := args.(type) {
	case []string:
		calldata, err = ethcoder.AbiEncodeMethodCalldataFromStringValues(inputAbiExpr, args)
	case []interface{}:
		calldata, err = ethcoder.AbiEncodeMethodCalldata(inputAbiExpr, args)
	case nil:
		calldata, err = ethcoder.AbiEncodeMethodCalldata(inputAbiExpr, nil)
	default:
		err = fmt.Errorf("unsupported args type %T", args)
	}
	if err != nil {
		return nil, fmt.Errorf("abi encode failed: %w", err)
	}

	msg := ethereum.CallMsg{
		To:   &contract,
		Data: calldata,
	}

	output, err := p.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}
	resp, err := ethcoder.AbiDecodeExprAndStringify(outputAbiExpr, output)
	if err != nil {
		return nil, fmt.Errorf("abi decode of response failed: %w", err)
	}
	return resp, nil
}
