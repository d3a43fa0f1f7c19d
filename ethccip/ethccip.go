package ethccip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/0xsequence/urkit/ethrpc"
	"github.com/ethereum/go-ethereum"
	"github.com/go-chi/transport"
	cachestore "github.com/goware/cachestore2"
)

var (
	ErrNotOffchainLookup = errors.New("ethccip: revert is not an OffchainLookup")
	ErrGatewayFailed     = errors.New("ethccip: all gateways failed")
	ErrTooManyRedirects  = errors.New("ethccip: too many CCIP-Read redirects")
	ErrSenderMismatch    = errors.New("ethccip: OffchainLookup sender does not match the called contract")
)

// Caller runs eth_call, ie. *ethrpc.Provider.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNum *big.Int) ([]byte, error)
}

type Breaker interface {
	Do(ctx context.Context, fn func() error) error
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	// HTTPClient fetches from gateways. Defaults to a client on http.DefaultTransport
	// which sets the User-Agent header.
	HTTPClient HTTPClient

	Logger *slog.Logger

	// MaxRedirects is the number of OffchainLookup reverts followed in a single call.
	MaxRedirects int

	// Cache stores successful gateway responses for CacheTTL.
	Cache    cachestore.Store[[]byte]
	CacheTTL time.Duration

	// Breaker retries a single gateway request, ie. github.com/goware/breaker.
	Breaker Breaker

	UserAgent string
}

var DefaultOptions = Options{
	MaxRedirects: 4,
	CacheTTL:     1 * time.Minute,
	UserAgent:    "urkit",
}

type Client struct {
	options    Options
	log        *slog.Logger
	httpClient HTTPClient
}

func NewClient(options ...Options) *Client {
	opts := DefaultOptions
	if len(options) > 0 {
		opts = options[0]
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultOptions.MaxRedirects
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultOptions.CacheTTL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultOptions.UserAgent
	}

	c := &Client{
		options:    opts,
		log:        opts.Logger,
		httpClient: opts.HTTPClient,
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: transport.Chain(http.DefaultTransport,
				transport.SetHeader("User-Agent", opts.UserAgent),
			),
		}
	}
	return c
}

func (c *Client) Options() Options {
	return c.options
}

// Call runs eth_call with CCIP-Read enabled. An OffchainLookup revert of msg.To is
// answered by its gateways and the callback is called in place of the original
// call, up to MaxRedirects times. Any other revert is returned as the caller's
// error, see ethrpc.RevertData.
func (c *Client) Call(ctx context.Context, caller Caller, msg ethereum.CallMsg) ([]byte, error) {
	for redirects := 0; ; redirects++ {
		out, err := caller.CallContract(ctx, msg, nil)
		if err == nil {
			return out, nil
		}

		revertData, ok := ethrpc.RevertData(err)
		if !ok || !IsOffchainLookup(revertData) {
			return nil, err
		}
		if redirects >= c.options.MaxRedirects {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRedirects, c.options.MaxRedirects)
		}

		lookup, err := ParseOffchainLookup(revertData)
		if err != nil {
			return nil, err
		}
		if msg.To == nil || lookup.Sender != *msg.To {
			return nil, fmt.Errorf("%w: sender %s", ErrSenderMismatch, lookup.Sender)
		}

		c.log.Debug("ethccip: offchain lookup", "sender", lookup.Sender, "urls", lookup.URLs, "redirect", redirects+1)

		response, err := c.Fetch(ctx, lookup.Sender, lookup.URLs, lookup.CallData)
		if err != nil {
			return nil, err
		}

		callback, err := lookup.CallbackData(response)
		if err != nil {
			return nil, err
		}
		msg.Data = callback
	}
}
