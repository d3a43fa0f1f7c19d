package main

import (
	"fmt"
	"os"

	"github.com/0xsequence/urkit/ethrpc"
	"github.com/0xsequence/urkit/sonic"
	"github.com/spf13/cobra"
)

var (
	VERSION       = "dev"
	GITBRANCH     = "branch"
	GITCOMMIT     = "last commit"
	GITCOMMITDATE = "last change"
)

var rootCmd = &cobra.Command{
	Use:   "urkit",
	Short: "urkit - ENS universal resolver test kit",
	Long:  banner(),
	Args:  cobra.MinimumNArgs(1),
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "urkit", version())
		},
	}

	rootCmd.AddCommand(versionCmd)

	ethrpc.SetJSONCodec(sonic.Config)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func help(cmd *cobra.Command) {
	fmt.Printf("\n--\n\n")
	cmd.Help()
	os.Exit(0)
}

func version() string {
	if GITBRANCH == "master" {
		return fmt.Sprintf("%s (commit:%s %s)", VERSION, GITCOMMIT, GITCOMMITDATE)
	}
	return fmt.Sprintf("%s (commit:%s %s %s)", VERSION, GITCOMMIT, GITCOMMITDATE, GITBRANCH)
}

func banner() string {
	s := ""
	s += `==========================================================` + "\n"
	s += `   __  __ _____  __ __ ____ ______` + "\n"
	s += `  / / / // __  \/ //_//  _//_  __/` + "\n"
	s += ` / /_/ // /_/ // ,<   / /   / /` + "\n"
	s += ` \____//_/ \_\/_/|_|/___/  /_/` + "\n"
	s += "\n"
	s += "=============== universal resolver test kit ==============\n"
	return s
}
