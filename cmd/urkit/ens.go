package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/0xsequence/urkit/ethcoder"
	"github.com/0xsequence/urkit/ethens"
	"github.com/0xsequence/urkit/ethrpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

const (
	flagRpcUrl   = "rpc-url"
	flagJson     = "json"
	flagRegistry = "registry"
)

func init() {
	rootCmd.AddCommand(NewNamehashCmd())
	rootCmd.AddCommand(NewLabelhashCmd())
	rootCmd.AddCommand(NewDNSEncodeCmd())
	rootCmd.AddCommand(NewSlotCmd())
	rootCmd.AddCommand(NewHijackCmd())
}

func NewNamehashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "namehash [name]",
		Short: "Print the ENS namehash of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := ethcoder.NameHash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), node.Hex())
			return nil
		},
	}
}

func NewLabelhashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labelhash [label]",
		Short: "Print the keccak256 of a single normalized label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := ethcoder.LabelHash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash.Hex())
			return nil
		},
	}
}

func NewDNSEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dnsencode [name]",
		Short: "Print the DNS wire encoding of a name, or decode it with --decode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fDecode, err := cmd.Flags().GetBool("decode")
			if err != nil {
				return err
			}
			if fDecode {
				data, err := hexutil.Decode(args[0])
				if err != nil {
					return fmt.Errorf("error: invalid hex: %w", err)
				}
				name, err := ethcoder.DNSDecode(data)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			}

			data, err := ethcoder.DNSEncode(args[0], 255)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(data))
			return nil
		},
	}
	cmd.Flags().BoolP("decode", "d", false, "Decode DNS encoded hex into a name")
	return cmd
}

type slotInfo struct {
	Name         string `json:"name"`
	Node         string `json:"node"`
	Registry     string `json:"registry"`
	RecordSlot   string `json:"recordSlot"`
	ResolverSlot string `json:"resolverSlot"`
}

func NewSlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot [name]",
		Short: "Print the ENS registry storage slots of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fJson, err := cmd.Flags().GetBool(flagJson)
			if err != nil {
				return err
			}

			node, err := ethcoder.NameHash(args[0])
			if err != nil {
				return err
			}
			info := slotInfo{
				Name:         args[0],
				Node:         node.Hex(),
				Registry:     ethens.RegistryAddress.Hex(),
				RecordSlot:   ethens.RecordSlot(node).Hex(),
				ResolverSlot: hexutil.EncodeBig(ethens.ResolverSlot(node)),
			}
			return printObject(cmd, info, fJson)
		},
	}
	cmd.Flags().BoolP(flagJson, "j", false, "Print as JSON")
	return cmd
}

func NewHijackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hijack [name] [resolver]",
		Short: "Point a name at a resolver on a dev node by rewriting registry storage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fRpc, err := cmd.Flags().GetString(flagRpcUrl)
			if err != nil {
				return err
			}
			fRegistry, err := cmd.Flags().GetString(flagRegistry)
			if err != nil {
				return err
			}
			if !common.IsHexAddress(args[1]) {
				return errors.New("error: please provide a valid resolver address")
			}
			if !common.IsHexAddress(fRegistry) {
				return errors.New("error: please provide a valid registry address")
			}
			if _, err = url.ParseRequestURI(fRpc); err != nil {
				return errors.New("error: please provide a valid rpc url (e.g. http://localhost:8545)")
			}

			provider, err := ethrpc.NewProvider(fRpc)
			if err != nil {
				return err
			}
			resolver := common.HexToAddress(args[1])
			if err := ethens.HijackResolver(context.Background(), provider, common.HexToAddress(fRegistry), args[0], resolver); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s\n", args[0], resolver.Hex())
			return nil
		},
	}
	cmd.Flags().StringP(flagRpcUrl, "r", "http://localhost:8545", "The RPC endpoint of the dev node")
	cmd.Flags().String(flagRegistry, ethens.RegistryAddress.Hex(), "The ENS registry whose storage is rewritten")
	return cmd
}
