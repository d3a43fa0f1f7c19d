package ethccip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/0xsequence/urkit/sonic"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goware/superr"
	"github.com/zeebo/xxh3"
)

const maxResponseSize = 4 << 20

// GatewayError is a 4xx or 5xx answer of a gateway.
type GatewayError struct {
	URL     string
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("ethccip: gateway %s responded %d: %s", e.URL, e.Status, e.Message)
}

type gatewayRequest struct {
	Data   string `json:"data"`
	Sender string `json:"sender"`
}

type gatewayResponse struct {
	Data    string `json:"data"`
	Message string `json:"message,omitempty"`
}

// Fetch asks the gateways in order for the answer to callData. A 4xx answer
// stops the lookup, a 5xx or network failure moves on to the next url.
func (c *Client) Fetch(ctx context.Context, sender common.Address, urls []string, callData []byte) ([]byte, error) {
	return c.fetch(ctx, sender, urls, callData, true)
}

func (c *Client) fetch(ctx context.Context, sender common.Address, urls []string, callData []byte, allowBatch bool) ([]byte, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no gateway urls", ErrGatewayFailed)
	}

	senderHex := strings.ToLower(sender.Hex())
	data := hexutil.Encode(callData)

	tried := mapset.NewThreadUnsafeSet[string]()
	var errs []error

	for _, url := range urls {
		if !tried.Add(url) {
			continue
		}

		if url == LocalBatchGatewayURL {
			if !allowBatch {
				errs = append(errs, fmt.Errorf("ethccip: nested batch gateway"))
				continue
			}
			response, err := c.localBatchGateway(ctx, callData)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			return response, nil
		}

		key := cacheKey(senderHex, url, data)
		if c.options.Cache != nil {
			if v, ok, err := c.options.Cache.Get(ctx, key); err == nil && ok {
				c.log.Debug("ethccip: cache hit", "url", url, "sender", senderHex)
				return v, nil
			}
		}

		response, err := c.fetchURL(ctx, url, senderHex, data)
		if err == nil {
			if c.options.Cache != nil {
				if err := c.options.Cache.SetEx(ctx, key, response, c.options.CacheTTL); err != nil {
					c.log.Warn("ethccip: failed to cache gateway response", "url", url, "err", err)
				}
			}
			return response, nil
		}

		var gwErr *GatewayError
		if errors.As(err, &gwErr) && gwErr.Status >= 400 && gwErr.Status < 500 {
			return nil, err
		}
		c.log.Warn("ethccip: gateway failed", "url", url, "err", err)
		errs = append(errs, err)
	}

	return nil, superr.New(ErrGatewayFailed, errs...)
}

func (c *Client) fetchURL(ctx context.Context, url, sender, data string) ([]byte, error) {
	href := strings.ReplaceAll(url, "{sender}", sender)
	href = strings.ReplaceAll(href, "{data}", data)

	var (
		response []byte
		stopErr  error
	)
	// Only transport failures are retried. A gateway that answered, even
	// with a 5xx, is left for fetch to move past.
	attempt := func() error {
		resp, err := c.doRequest(ctx, url, href, sender, data)
		if err != nil {
			var gwErr *GatewayError
			if errors.As(err, &gwErr) {
				stopErr = err
				return nil
			}
			return err
		}
		response = resp
		return nil
	}

	var err error
	if c.options.Breaker != nil {
		err = c.options.Breaker.Do(ctx, attempt)
	} else {
		err = attempt()
	}
	if err != nil {
		return nil, err
	}
	if stopErr != nil {
		return nil, stopErr
	}
	return response, nil
}

func (c *Client) doRequest(ctx context.Context, url, href, sender, data string) ([]byte, error) {
	var req *http.Request
	var err error

	if strings.Contains(url, "{data}") {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	} else {
		body, merr := sonic.Config.Marshal(gatewayRequest{Data: data, Sender: sender})
		if merr != nil {
			return nil, merr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, href, bytes.NewReader(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("ethccip: invalid gateway url %q: %w", url, err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ethccip: gateway %s: %w", url, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("ethccip: gateway %s: %w", url, err)
	}

	var payload gatewayResponse
	jsonErr := sonic.Config.Unmarshal(body, &payload)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := payload.Message
		if jsonErr != nil || msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return nil, &GatewayError{URL: url, Status: res.StatusCode, Message: msg}
	}

	if jsonErr != nil {
		return nil, &GatewayError{URL: url, Status: http.StatusInternalServerError, Message: "invalid json response"}
	}
	response, err := hexutil.Decode(payload.Data)
	if err != nil {
		return nil, &GatewayError{URL: url, Status: http.StatusInternalServerError, Message: "invalid response data"}
	}
	return response, nil
}

func cacheKey(sender, url, data string) string {
	return fmt.Sprintf("ccip:%016x", xxh3.HashString(sender+"|"+url+"|"+data))
}
