package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/0xsequence/urkit/ethccip"
	"github.com/0xsequence/urkit/ethens"
	"github.com/0xsequence/urkit/ethrpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goware/breaker"
	memcache "github.com/goware/cachestore-mem"
	cachestore "github.com/goware/cachestore2"
	"github.com/spf13/cobra"
)

const (
	flagResolveUR   = "ur"
	flagResolveText = "text"
	flagResolveAddr = "addr"
)

func init() {
	rootCmd.AddCommand(NewResolveCmd())
}

type resolve struct {
}

// NewResolveCmd returns a command resolving a record through a universal resolver.
func NewResolveCmd() *cobra.Command {
	c := &resolve{}
	cmd := &cobra.Command{
		Use:   "resolve [name]",
		Short: "Resolve a text or address record of a name through a universal resolver",
		Args:  cobra.ExactArgs(1),
		RunE:  c.Run,
	}

	cmd.Flags().String(flagResolveUR, "", "The universal resolver address (required)")
	cmd.Flags().StringP(flagRpcUrl, "r", "", "The RPC endpoint to the blockchain node to interact with")
	cmd.Flags().String(flagResolveText, "", "The text record key to resolve")
	cmd.Flags().Uint64(flagResolveAddr, ethens.CoinTypeETH, "Resolve the address record of this coin type")
	cmd.Flags().Duration("timeout", 30*time.Second, "Timeout of the resolution, including gateway requests")

	return cmd
}

func (c *resolve) Run(cmd *cobra.Command, args []string) error {
	name := args[0]
	fUR, err := cmd.Flags().GetString(flagResolveUR)
	if err != nil {
		return err
	}
	fRpc, err := cmd.Flags().GetString(flagRpcUrl)
	if err != nil {
		return err
	}
	fText, err := cmd.Flags().GetString(flagResolveText)
	if err != nil {
		return err
	}
	fAddr, err := cmd.Flags().GetUint64(flagResolveAddr)
	if err != nil {
		return err
	}
	fTimeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	if !common.IsHexAddress(fUR) {
		return errors.New("error: please provide a valid universal resolver address with --ur")
	}
	if _, err = url.ParseRequestURI(fRpc); err != nil {
		return errors.New("error: please provide a valid rpc url (e.g. http://localhost:8545)")
	}

	ur, err := newUniversalResolver(common.HexToAddress(fUR), fRpc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), fTimeout)
	defer cancel()

	if fText != "" {
		value, err := ur.ResolveText(ctx, name, fText)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	}

	value, err := ur.ResolveAddr(ctx, name, fAddr)
	if err != nil {
		return err
	}
	if fAddr == ethens.CoinTypeETH && len(value) == common.AddressLength {
		fmt.Fprintln(cmd.OutOrStdout(), common.BytesToAddress(value).Hex())
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(value))
	}
	return nil
}

// newUniversalResolver wires a provider and a CCIP-Read client, both retrying
// with backoff, with gateway responses cached in memory.
func newUniversalResolver(address common.Address, rpcURL string) (*ethens.UniversalResolver, error) {
	br := newBreaker()

	provider, err := ethrpc.NewProvider(rpcURL, ethrpc.WithBreaker(br))
	if err != nil {
		return nil, err
	}

	backend, err := memcache.NewBackend(512)
	if err != nil {
		return nil, err
	}
	ccip := ethccip.NewClient(ethccip.Options{
		Breaker: br,
		Cache:   cachestore.OpenStore[[]byte](backend),
	})

	return ethens.NewUniversalResolver(address, nil, provider, ccip), nil
}

// newBreaker retries transport failures twice with a short backoff. The
// breaker sleeps without watching ctx, so its budget has to stay small.
func newBreaker() *breaker.Breaker {
	return breaker.New(nil, 200*time.Millisecond, 2, 2)
}
