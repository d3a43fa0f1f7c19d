package ensvotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/0xsequence/urkit/ethccip"
	"github.com/0xsequence/urkit/ethcoder"
	"github.com/0xsequence/urkit/ethcontract"
	"github.com/0xsequence/urkit/ethdeploy"
	"github.com/0xsequence/urkit/ethens"
	"github.com/0xsequence/urkit/ethtest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"
)

// Contract artifact names.
const (
	HookVerifier      = "HookVerifier"
	FakeVotesResolver = "FakeVotesResolver"
	ENSVotesResolver  = "ENSVotesResolver"
	UniversalResolver = "UR"
)

// Scenario labels, in the order they run.
const (
	ScenarioCall              = "call"
	ScenarioHook              = "hook"
	ScenarioHookWrongChain    = "hook w/wrong chain"
	ScenarioCallWrongResolver = "call w/wrong resolver"
	ScenarioHookWrongResolver = "hook w/wrong resolver"
)

var ErrNotSetup = errors.New("ensvotes: harness is not set up")

// NameResolver forward-resolves ENS names, ie. *ethrpc.Provider.
type NameResolver interface {
	ResolveName(ctx context.Context, name string) (common.Address, bool, error)
}

type Options struct {
	Logger *slog.Logger

	// CCIP follows OffchainLookup reverts of the universal resolver.
	CCIP *ethccip.Client

	// Names defaults to the testchain provider.
	Names NameResolver

	// Concurrency bounds the voter name lookups of Run.
	Concurrency int
}

type Harness struct {
	cfg   Config
	chain *ethtest.Testchain
	log   *slog.Logger
	ccip  *ethccip.Client
	names NameResolver
	conc  int

	registry common.Address
	token    common.Address

	HookVerifier      *ethcontract.Contract
	FakeVotesResolver *ethcontract.Contract
	ENSVotesResolver  *ethcontract.Contract
	UR                *ethcontract.Contract

	resolver *ethens.UniversalResolver
}

func NewHarness(cfg Config, chain *ethtest.Testchain, options ...Options) (*Harness, error) {
	if chain == nil {
		return nil, fmt.Errorf("ensvotes: testchain is required")
	}
	if !common.IsHexAddress(cfg.Registry) || !common.IsHexAddress(cfg.Token) {
		return nil, fmt.Errorf("ensvotes: registry and token must be addresses")
	}

	var opts Options
	if len(options) > 0 {
		opts = options[0]
	}
	h := &Harness{
		cfg:      cfg,
		chain:    chain,
		log:      opts.Logger,
		ccip:     opts.CCIP,
		names:    opts.Names,
		conc:     opts.Concurrency,
		registry: common.HexToAddress(cfg.Registry),
		token:    common.HexToAddress(cfg.Token),
	}
	if h.log == nil {
		h.log = slog.New(slog.DiscardHandler)
	}
	if h.ccip == nil {
		h.ccip = ethccip.NewClient(ethccip.Options{Logger: h.log})
	}
	if h.names == nil {
		h.names = chain.Provider
	}
	if h.conc <= 0 {
		h.conc = 4
	}
	return h, nil
}

// Setup deploys the resolvers and the universal resolver, linked against
// HookVerifier and aware of its errors.
func (h *Harness) Setup(ctx context.Context) error {
	for _, name := range []string{HookVerifier, FakeVotesResolver, ENSVotesResolver, UniversalResolver} {
		if _, ok := h.chain.Contracts.Get(name); !ok {
			return fmt.Errorf("ensvotes: artifact %s not found in %s", name, h.cfg.ArtifactsDir)
		}
	}

	var err error
	h.HookVerifier, err = h.deploy(ctx, HookVerifier, ethdeploy.DeployOptions{})
	if err != nil {
		return err
	}
	h.FakeVotesResolver, err = h.deploy(ctx, FakeVotesResolver, ethdeploy.DeployOptions{})
	if err != nil {
		return err
	}
	h.ENSVotesResolver, err = h.deploy(ctx, ENSVotesResolver, ethdeploy.DeployOptions{
		Args: []interface{}{h.registry, h.token},
	})
	if err != nil {
		return err
	}
	h.UR, err = h.deploy(ctx, UniversalResolver, ethdeploy.DeployOptions{
		Args:      []interface{}{h.registry, h.gateways()},
		Libraries: map[string]common.Address{HookVerifier: h.HookVerifier.Address},
	})
	if err != nil {
		return err
	}

	h.useUR()
	return nil
}

// Attach uses contracts deployed earlier on the node, by artifact name, in
// place of Setup.
func (h *Harness) Attach(deployments map[string]common.Address) error {
	contracts := []struct {
		name     string
		contract **ethcontract.Contract
	}{
		{HookVerifier, &h.HookVerifier},
		{FakeVotesResolver, &h.FakeVotesResolver},
		{ENSVotesResolver, &h.ENSVotesResolver},
		{UniversalResolver, &h.UR},
	}
	for _, c := range contracts {
		address, ok := deployments[c.name]
		if !ok {
			return fmt.Errorf("ensvotes: no deployment of %s", c.name)
		}
		artifact, ok := h.chain.Contracts.Get(c.name)
		if !ok {
			return fmt.Errorf("ensvotes: artifact %s not found in %s", c.name, h.cfg.ArtifactsDir)
		}
		*c.contract = ethcontract.NewContract(address, artifact.ABI)
	}
	h.useUR()
	return nil
}

func (h *Harness) useUR() {
	merged := h.chain.Contracts.MustGet(UniversalResolver).MergeABI(h.HookVerifier.ABI)
	h.UR.ABI = merged.ABI
	h.resolver = ethens.NewUniversalResolver(h.UR.Address, &h.UR.ABI, h.chain.Provider, h.ccip)
}

func (h *Harness) deploy(ctx context.Context, name string, opts ethdeploy.DeployOptions) (*ethcontract.Contract, error) {
	contract, _, err := h.chain.Deploy(ctx, name, opts)
	if err != nil {
		return nil, fmt.Errorf("ensvotes: deploy %s: %w", name, err)
	}
	h.log.Info("deployed", "contract", name, "address", contract.Address)
	return contract, nil
}

func (h *Harness) gateways() []string {
	if h.cfg.Gateways == nil {
		return []string{}
	}
	return h.cfg.Gateways
}

// Deployments lists the deployed contract addresses by artifact name.
func (h *Harness) Deployments() map[string]common.Address {
	out := map[string]common.Address{}
	for name, c := range map[string]*ethcontract.Contract{
		HookVerifier:      h.HookVerifier,
		FakeVotesResolver: h.FakeVotesResolver,
		ENSVotesResolver:  h.ENSVotesResolver,
		UniversalResolver: h.UR,
	} {
		if c != nil {
			out[name] = c.Address
		}
	}
	return out
}

// GenerateName maps a voter's name to its subname under the basename, keyed
// by the voter's address.
func (h *Harness) GenerateName(ctx context.Context, name string) (string, error) {
	address, ok, err := h.names.ResolveName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("ensvotes: resolve %q: %w", name, err)
	}
	if !ok || address == (common.Address{}) {
		return "", fmt.Errorf("no address for %q", name)
	}
	return VoterName(address, h.cfg.Basename), nil
}

// VoterName is "<lowercase hex address without 0x>.<basename>".
func VoterName(address common.Address, basename string) string {
	return strings.ToLower(address.Hex()[2:]) + "." + basename
}

// HijackResolver points name at resolver by rewriting the registry storage.
func (h *Harness) HijackResolver(ctx context.Context, name string, resolver common.Address) error {
	if err := ethens.HijackResolver(ctx, h.chain.Provider, h.registry, name, resolver); err != nil {
		return fmt.Errorf("ensvotes: hijack %s: %w", name, err)
	}
	h.log.Info(fmt.Sprintf("Set %s to %s", name, resolver.Hex()))
	return nil
}

// ResolveVotes resolves name through the universal resolver with a single call
// and decodes it as a text record.
func (h *Harness) ResolveVotes(ctx context.Context, name string, data []byte) (string, error) {
	if h.resolver == nil {
		return "", ErrNotSetup
	}
	result, err := h.resolver.Resolve(ctx, name, [][]byte{data}, nil)
	if err != nil {
		return "", err
	}
	if len(result.Responses) != 1 {
		return "", fmt.Errorf("ensvotes: expected 1 response, got %d", len(result.Responses))
	}
	resp := result.Responses[0]
	if err := resp.Err(&h.UR.ABI); err != nil {
		return "", err
	}
	return ethens.DecodeText(resp.Data)
}

// Test runs the five scenarios for one voter.
func (h *Harness) Test(ctx context.Context, name string) (*VoterReport, error) {
	voterName, err := h.GenerateName(ctx, name)
	if err != nil {
		return nil, err
	}
	return h.test(ctx, name, voterName)
}

func (h *Harness) test(ctx context.Context, name, voterName string) (*VoterReport, error) {
	if h.UR == nil {
		return nil, ErrNotSetup
	}

	calldata, err := ethens.EncodeText(ethcoder.MustNameHash(voterName), h.cfg.TextKey)
	if err != nil {
		return nil, err
	}
	hookdata, err := ethens.WrapHook(calldata, h.ENSVotesResolver.Address, new(big.Int).SetUint64(h.cfg.HookChainID))
	if err != nil {
		return nil, err
	}
	wrongChain, err := ethens.WrapHook(calldata, h.ENSVotesResolver.Address, new(big.Int).SetUint64(h.cfg.WrongChainID))
	if err != nil {
		return nil, err
	}

	report := &VoterReport{
		Name:      name,
		VoterName: voterName,
		Calldata:  hexutil.Encode(calldata),
		Hookdata:  hexutil.Encode(hookdata),
	}
	h.log.Info("voter", "name", name, "voterName", voterName, "calldata", report.Calldata, "hookdata", report.Hookdata)

	run := func(label string, data []byte) {
		value, err := h.ResolveVotes(ctx, voterName, data)
		outcome := Outcome{Label: label, Value: value}
		if err != nil {
			outcome.Err = ErrorString(err)
		}
		h.log.Info(label, "value", outcome.Value, "err", outcome.Err)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if err := h.HijackResolver(ctx, h.cfg.Basename, h.ENSVotesResolver.Address); err != nil {
		return nil, err
	}
	run(ScenarioCall, calldata)
	run(ScenarioHook, hookdata)
	run(ScenarioHookWrongChain, wrongChain)

	if err := h.HijackResolver(ctx, h.cfg.Basename, h.FakeVotesResolver.Address); err != nil {
		return nil, err
	}
	run(ScenarioCallWrongResolver, calldata)
	run(ScenarioHookWrongResolver, hookdata)

	return report, nil
}

// Run deploys, or attaches to the configured deployments, resolves every
// voter's name concurrently, then runs the scenarios voter by voter since they
// rewrite the same registry slot.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	if h.UR == nil && len(h.cfg.Deployments) > 0 {
		deployments := map[string]common.Address{}
		for name, address := range h.cfg.Deployments {
			deployments[name] = common.HexToAddress(address)
		}
		if err := h.Attach(deployments); err != nil {
			return nil, err
		}
	}
	if h.UR == nil {
		if err := h.Setup(ctx); err != nil {
			return nil, err
		}
	}

	voterNames := make([]string, len(h.cfg.Voters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.conc)
	for i, name := range h.cfg.Voters {
		g.Go(func() error {
			voterName, err := h.GenerateName(gctx, name)
			if err != nil {
				return err
			}
			voterNames[i] = voterName
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Basename: h.cfg.Basename, Deployments: h.Deployments()}
	for i, name := range h.cfg.Voters {
		voter, err := h.test(ctx, name, voterNames[i])
		if err != nil {
			return report, err
		}
		report.Voters = append(report.Voters, *voter)
	}
	return report, nil
}

// ErrorString renders a failed resolution the way it is reported: decoded
// reverts as their error signature, anything else as its message.
func ErrorString(err error) string {
	var revertErr *ethcoder.RevertError
	if errors.As(err, &revertErr) {
		return revertErr.Error()
	}
	return err.Error()
}
