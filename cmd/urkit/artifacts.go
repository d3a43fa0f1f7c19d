package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/0xsequence/urkit/ethartifact"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(NewArtifactsCmd())
}

type artifacts struct {
}

func NewArtifactsCmd() *cobra.Command {
	c := &artifacts{}
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Print the contract abi or bytecode from an artifacts file, or list a forge out/ directory",
		Args:  cobra.NoArgs,
		RunE:  c.Run,
	}

	cmd.Flags().String("file", "", "path to a hardhat or forge contract artifacts file")
	cmd.Flags().String("dir", "", "path to a forge out/ directory to list")
	cmd.Flags().Bool("abi", false, "abi")
	cmd.Flags().Bool("bytecode", false, "bytecode")

	return cmd
}

func (c *artifacts) Run(cmd *cobra.Command, args []string) error {
	fFile, _ := cmd.Flags().GetString("file")
	fDir, _ := cmd.Flags().GetString("dir")
	fAbi, _ := cmd.Flags().GetBool("abi")
	fBytecode, _ := cmd.Flags().GetBool("bytecode")

	if fDir != "" {
		return c.list(cmd, fDir)
	}

	if fFile == "" {
		return errors.New("error: please pass --file or --dir")
	}
	if !fAbi && !fBytecode {
		return errors.New("error: please pass either --abi or --bytecode")
	}
	if fAbi && fBytecode {
		return errors.New("error: please pass either --abi or --bytecode, not both")
	}

	artifact, err := ethartifact.ParseArtifactFile(fFile)
	if err != nil {
		return err
	}

	if fAbi {
		fmt.Fprintln(cmd.OutOrStdout(), string(artifact.ABI))
	}
	if fBytecode {
		fmt.Fprintln(cmd.OutOrStdout(), artifact.Bytecode)
	}
	return nil
}

// list prints every contract of a forge out/ directory with the libraries it
// must be linked against.
func (c *artifacts) list(cmd *cobra.Command, dir string) error {
	registry, err := ethartifact.LoadFoundryOut(dir)
	if err != nil {
		return err
	}
	for _, name := range registry.ContractNames() {
		artifact := registry.MustGet(name)
		line := name
		if libs := artifact.Libraries(); len(libs) > 0 {
			line += " (links " + strings.Join(libs, ", ") + ")"
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
