package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/0xsequence/urkit/ethens"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

const (
	flagHookCalldata = "calldata"
	flagHookResolver = "resolver"
	flagHookChainID  = "chain-id"
	flagHookDecode   = "decode"
)

func init() {
	rootCmd.AddCommand(NewHookCmd())
}

type hook struct {
}

type hookInfo struct {
	Calldata string `json:"calldata"`
	Resolver string `json:"resolver"`
	ChainID  string `json:"chainId"`
}

func NewHookCmd() *cobra.Command {
	c := &hook{}
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Wrap resolver calldata in a hook(bytes,address,uint256) call, or decode one",
		Args:  cobra.NoArgs,
		RunE:  c.Run,
	}

	cmd.Flags().String(flagHookCalldata, "", "The resolver calldata to wrap")
	cmd.Flags().String(flagHookResolver, "", "The resolver the hook targets")
	cmd.Flags().Uint64(flagHookChainID, 1, "The chain id the hook targets")
	cmd.Flags().String(flagHookDecode, "", "Decode hook calldata instead")
	cmd.Flags().BoolP(flagJson, "j", false, "Print as JSON")

	return cmd
}

func (c *hook) Run(cmd *cobra.Command, args []string) error {
	fCalldata, err := cmd.Flags().GetString(flagHookCalldata)
	if err != nil {
		return err
	}
	fResolver, err := cmd.Flags().GetString(flagHookResolver)
	if err != nil {
		return err
	}
	fChainID, err := cmd.Flags().GetUint64(flagHookChainID)
	if err != nil {
		return err
	}
	fDecode, err := cmd.Flags().GetString(flagHookDecode)
	if err != nil {
		return err
	}
	fJson, err := cmd.Flags().GetBool(flagJson)
	if err != nil {
		return err
	}

	if fDecode != "" {
		data, err := hexutil.Decode(fDecode)
		if err != nil {
			return fmt.Errorf("error: invalid hex: %w", err)
		}
		h, err := ethens.UnwrapHook(data)
		if err != nil {
			return err
		}
		return printObject(cmd, hookInfo{
			Calldata: hexutil.Encode(h.Calldata),
			Resolver: h.Resolver.Hex(),
			ChainID:  h.ChainID.String(),
		}, fJson)
	}

	calldata, err := hexutil.Decode(fCalldata)
	if err != nil {
		return errors.New("error: please provide the resolver calldata as hex with --calldata")
	}
	if !common.IsHexAddress(fResolver) {
		return errors.New("error: please provide a valid resolver address with --resolver")
	}

	data, err := ethens.WrapHook(calldata, common.HexToAddress(fResolver), new(big.Int).SetUint64(fChainID))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(data))
	return nil
}
