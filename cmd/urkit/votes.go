package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/0xsequence/urkit/ensvotes"
	"github.com/0xsequence/urkit/ethccip"
	"github.com/davecgh/go-spew/spew"
	memcache "github.com/goware/cachestore-mem"
	cachestore "github.com/goware/cachestore2"
	"github.com/goware/logger"
	"github.com/goware/pp"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	flagVotesConfig    = "config"
	flagVotesForkURL   = "fork-url"
	flagVotesForkBlock = "fork-block"
	flagVotesArtifacts = "artifacts"
	flagVotesNames     = "names"
	flagVotesGateway   = "gateway"
	flagVotesAnvil     = "anvil"
	flagVotesPort      = "port"
	flagVotesDebug     = "debug"
	flagVotesLogLevel  = "log-level"
)

func init() {
	rootCmd.AddCommand(NewVotesCmd())
}

type votes struct {
}

// NewVotesCmd returns the command running the ENS votes scenarios on a mainnet fork.
func NewVotesCmd() *cobra.Command {
	c := &votes{}
	cmd := &cobra.Command{
		Use:   "votes",
		Short: "Deploy the votes resolvers on a mainnet fork and resolve every voter through the universal resolver",
		Args:  cobra.NoArgs,
		RunE:  c.Run,
	}

	cmd.Flags().StringP(flagVotesConfig, "c", "", "Path to a toml config file")
	cmd.Flags().String(flagVotesForkURL, "", "The RPC endpoint anvil forks from (or $"+ensvotes.EnvForkURL+")")
	cmd.Flags().Uint64(flagVotesForkBlock, 0, "The block number to fork at, latest by default")
	cmd.Flags().String(flagVotesArtifacts, "", "The forge out/ directory with the compiled contracts")
	cmd.Flags().StringSlice(flagVotesNames, nil, "The voters' ENS names")
	cmd.Flags().StringSlice(flagVotesGateway, nil, "The batch gateways of the universal resolver")
	cmd.Flags().String(flagVotesAnvil, "", "Path to the anvil binary")
	cmd.Flags().Int(flagVotesPort, 0, "The port anvil listens on, a free one by default")
	cmd.Flags().StringP(flagRpcUrl, "r", "", "Attach to a running dev node instead of launching anvil")
	cmd.Flags().Bool(flagVotesDebug, false, "Log everything, including the anvil output")
	cmd.Flags().String(flagVotesLogLevel, "info", "The log level: debug, info, warn or error")
	cmd.Flags().BoolP(flagJson, "j", false, "Print the report as JSON")

	return cmd
}

func (c *votes) Run(cmd *cobra.Command, args []string) error {
	cfg, err := c.config(cmd)
	if err != nil {
		return err
	}
	fDebug, err := cmd.Flags().GetBool(flagVotesDebug)
	if err != nil {
		return err
	}
	fLogLevel, err := cmd.Flags().GetString(flagVotesLogLevel)
	if err != nil {
		return err
	}
	fJson, err := cmd.Flags().GetBool(flagJson)
	if err != nil {
		return err
	}

	level, err := parseLogLevel(fLogLevel)
	if err != nil {
		return err
	}
	anvilLevel := logger.LogLevel_WARN
	if fDebug {
		level = slog.LevelDebug
		anvilLevel = logger.LogLevel_DEBUG
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chain, err := ensvotes.OpenChain(ctx, cfg, log, logger.NewLogger(anvilLevel))
	if err != nil {
		return err
	}
	defer chain.Shutdown()

	backend, err := memcache.NewBackend(512)
	if err != nil {
		return err
	}
	harness, err := ensvotes.NewHarness(cfg, chain, ensvotes.Options{
		Logger: log,
		CCIP: ethccip.NewClient(ethccip.Options{
			Logger:  log,
			Breaker: newBreaker(),
			Cache:   cachestore.OpenStore[[]byte](backend),
		}),
	})
	if err != nil {
		return err
	}

	report, err := harness.Run(ctx)
	if err != nil {
		return err
	}
	if fDebug {
		log.Debug("report", "dump", spew.Sdump(report))
	}

	if fJson {
		s, err := PrettyJSON(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Table())
	printSummary(cmd, report)
	return nil
}

// config layers the flags over the config file, the environment and the defaults.
func (c *votes) config(cmd *cobra.Command) (ensvotes.Config, error) {
	fConfig, err := cmd.Flags().GetString(flagVotesConfig)
	if err != nil {
		return ensvotes.Config{}, err
	}
	cfg, err := ensvotes.LoadConfig(fConfig)
	if err != nil {
		return ensvotes.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed(flagVotesForkURL) {
		cfg.ForkURL, _ = flags.GetString(flagVotesForkURL)
	}
	if flags.Changed(flagVotesForkBlock) {
		cfg.ForkBlock, _ = flags.GetUint64(flagVotesForkBlock)
	}
	if flags.Changed(flagVotesArtifacts) {
		cfg.ArtifactsDir, _ = flags.GetString(flagVotesArtifacts)
	}
	if flags.Changed(flagVotesNames) {
		cfg.Voters, _ = flags.GetStringSlice(flagVotesNames)
	}
	if flags.Changed(flagVotesGateway) {
		cfg.Gateways, _ = flags.GetStringSlice(flagVotesGateway)
	}
	if flags.Changed(flagVotesAnvil) {
		cfg.AnvilBin, _ = flags.GetString(flagVotesAnvil)
	}
	if flags.Changed(flagVotesPort) {
		cfg.Port, _ = flags.GetInt(flagVotesPort)
	}
	if flags.Changed(flagRpcUrl) {
		cfg.RPCURL, _ = flags.GetString(flagRpcUrl)
	}

	if err := cfg.Validate(); err != nil {
		return ensvotes.Config{}, err
	}
	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("error: invalid log level %q", s)
	}
	return level, nil
}

func printSummary(cmd *cobra.Command, report *ensvotes.Report) {
	total, failed := 0, 0
	for _, v := range report.Voters {
		for _, o := range v.Outcomes {
			total++
			if !o.OK() {
				failed++
			}
		}
	}

	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "%d scenarios, %d resolved, %d errored\n", total, total-failed, failed)
		return
	}
	pp.Green("%d scenarios", total).Blue("%d resolved", total-failed).Red("%d errored", failed).Println()
}
