package ensvotes_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/0xsequence/urkit/ensvotes"
	"github.com/0xsequence/urkit/ethartifact"
	"github.com/0xsequence/urkit/ethcoder"
	"github.com/0xsequence/urkit/ethens"
	"github.com/0xsequence/urkit/ethtest"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	publicResolver = common.HexToAddress("0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63")

	deployments = map[string]common.Address{
		ensvotes.HookVerifier:      common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		ensvotes.FakeVotesResolver: common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
		ensvotes.ENSVotesResolver:  common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"),
		ensvotes.UniversalResolver: common.HexToAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9"),
	}

	// votes held by each voter's address
	votes = map[common.Address]string{
		voters["nick.eth"]:  "1000",
		voters["premm.eth"]: "250",
	}
)

type lookupTuple struct {
	Dns      []byte
	Offset   *big.Int
	Node     [32]byte
	Resolver common.Address
	Extended bool
}

type responseTuple struct {
	Bits *big.Int
	Data []byte
}

// forkNode stands in for a mainnet fork running the votes contracts. It
// answers ENS lookups of the voters, registry storage writes, and resolve
// calls of the universal resolver the way the deployed contracts do.
type forkNode struct {
	t *testing.T

	mu       sync.Mutex
	resolver common.Address // current resolver of votes.eth
	events   []string
	lookups  int
}

func (n *forkNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	require.NoError(n.t, json.Unmarshal(body, &req))

	var result any
	switch req.Method {
	case "eth_chainId":
		result = "0x1"
	case "anvil_setStorageAt":
		result = n.setStorageAt(req.Params)
	case "eth_call":
		var msg struct {
			To   common.Address `json:"to"`
			Data hexutil.Bytes  `json:"data"`
		}
		require.NoError(n.t, json.Unmarshal(req.Params[0], &msg))
		result = hexutil.Encode(n.call(msg.To, msg.Data))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func (n *forkNode) setStorageAt(params []json.RawMessage) any {
	var account common.Address
	var slot hexutil.Big
	var value common.Hash
	require.NoError(n.t, json.Unmarshal(params[0], &account))
	require.NoError(n.t, json.Unmarshal(params[1], &slot))
	require.NoError(n.t, json.Unmarshal(params[2], &value))

	assert.Equal(n.t, ethens.RegistryAddress, account)
	assert.Equal(n.t, ethens.ResolverSlot(ethcoder.MustNameHash("votes.eth")), slot.ToInt())

	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolver = common.BytesToAddress(value.Bytes())
	n.events = append(n.events, "hijack "+n.name(n.resolver))
	return true
}

func (n *forkNode) call(to common.Address, data []byte) []byte {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch to {
	case ethens.RegistryAddress:
		// resolver(bytes32)
		n.lookups++
		return common.LeftPadBytes(publicResolver.Bytes(), 32)

	case publicResolver:
		// addr(bytes32)
		for name, address := range voters {
			node := ethcoder.MustNameHash(name)
			if common.BytesToHash(data[4:36]) == node {
				return common.LeftPadBytes(address.Bytes(), 32)
			}
		}
		return make([]byte, 32)

	case deployments[ensvotes.UniversalResolver]:
		return n.resolve(data)
	}

	n.t.Errorf("unexpected eth_call to %s", to)
	return nil
}

func (n *forkNode) resolve(data []byte) []byte {
	urABI := ethens.UniversalResolverABI
	args, err := urABI.Methods["resolve"].Inputs.Unpack(data[4:])
	require.NoError(n.t, err)
	dnsName := args[0].([]byte)
	calls := args[1].([][]byte)
	require.Len(n.t, calls, 1)

	call := calls[0]
	event := "resolve call"
	hooked := ethens.IsHook(call)
	if hooked {
		hook, err := ethens.UnwrapHook(call)
		require.NoError(n.t, err)
		event = fmt.Sprintf("resolve hook %s chain %s", n.name(hook.Resolver), hook.ChainID)

		// the verifier only lets the hook through for the resolver it names on chain 1
		if hook.Resolver != n.resolver || hook.ChainID.Uint64() != 1 {
			n.events = append(n.events, event)
			return n.respond(dnsName, responseTuple{Bits: big.NewInt(ethens.BitError), Data: resolverError(n.t, []byte("invalid hook"))})
		}
		call = hook.Calldata
	}
	n.events = append(n.events, event)

	values, err := ethens.ResolverABI.Methods["text"].Inputs.Unpack(call[4:])
	require.NoError(n.t, err)
	node := common.Hash(values[0].([32]byte))
	assert.Equal(n.t, "ens.votes", values[1])

	value := "0"
	if n.resolver == deployments[ensvotes.ENSVotesResolver] {
		for address, v := range votes {
			if ethcoder.MustNameHash(ensvotes.VoterName(address, "votes.eth")) == node {
				value = v
			}
		}
	}
	text, err := ethens.ResolverABI.Methods["text"].Outputs.Pack(value)
	require.NoError(n.t, err)
	return n.respond(dnsName, responseTuple{Bits: big.NewInt(0), Data: text})
}

func (n *forkNode) respond(dnsName []byte, resp responseTuple) []byte {
	out, err := ethens.UniversalResolverABI.Methods["resolve"].Outputs.Pack(
		lookupTuple{Dns: dnsName, Offset: big.NewInt(0), Resolver: n.resolver},
		[]responseTuple{resp},
	)
	require.NoError(n.t, err)
	return out
}

func (n *forkNode) name(address common.Address) string {
	for name, a := range deployments {
		if a == address {
			return name
		}
	}
	return address.Hex()
}

func resolverError(t *testing.T, inner []byte) []byte {
	resolverError := ethens.UniversalResolverABI.Errors["ResolverError"]
	args, err := resolverError.Inputs.Pack(inner)
	require.NoError(t, err)
	return append(resolverError.ID.Bytes()[:4], args...)
}

func votesContracts(t *testing.T) *ethartifact.ContractRegistry {
	registry := ethartifact.NewContractRegistry()
	require.NoError(t, registry.Add(ethartifact.Artifact{ContractName: ensvotes.UniversalResolver, ABI: ethens.UniversalResolverABI}))
	for _, name := range []string{ensvotes.HookVerifier, ensvotes.FakeVotesResolver, ensvotes.ENSVotesResolver} {
		require.NoError(t, registry.Add(ethartifact.Artifact{ContractName: name, ABI: abi.ABI{}}))
	}
	return registry
}

func newForkHarness(t *testing.T, cfg ensvotes.Config) (*ensvotes.Harness, *forkNode) {
	node := &forkNode{t: t}
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	chain, err := ethtest.NewTestchain(ethtest.TestchainOptions{NodeURL: srv.URL, Contracts: votesContracts(t)})
	require.NoError(t, err)

	h, err := ensvotes.NewHarness(cfg, chain)
	require.NoError(t, err)
	return h, node
}

func TestVoterScenarios(t *testing.T) {
	h, node := newForkHarness(t, ensvotes.DefaultConfig())
	require.NoError(t, h.Attach(deployments))

	report, err := h.Test(context.Background(), "nick.eth")
	require.NoError(t, err)
	assert.Equal(t, "nick.eth", report.Name)
	assert.Equal(t, "b8c2c29ee19d8307cb7255e1cd9cbde883a267d5.votes.eth", report.VoterName)

	assert.Equal(t, []ensvotes.Outcome{
		{Label: ensvotes.ScenarioCall, Value: "1000"},
		{Label: ensvotes.ScenarioHook, Value: "1000"},
		{Label: ensvotes.ScenarioHookWrongChain, Err: "ResolverError(bytes)"},
		{Label: ensvotes.ScenarioCallWrongResolver, Value: "0"},
		{Label: ensvotes.ScenarioHookWrongResolver, Err: "ResolverError(bytes)"},
	}, report.Outcomes)

	// each hijack lands before the calls that depend on it
	assert.Equal(t, []string{
		"hijack ENSVotesResolver",
		"resolve call",
		"resolve hook ENSVotesResolver chain 1",
		"resolve hook ENSVotesResolver chain 2",
		"hijack FakeVotesResolver",
		"resolve call",
		"resolve hook ENSVotesResolver chain 1",
	}, node.events)
}

func TestRunAttached(t *testing.T) {
	cfg := ensvotes.DefaultConfig()
	cfg.Deployments = map[string]string{}
	for name, address := range deployments {
		cfg.Deployments[name] = address.Hex()
	}
	require.NoError(t, cfg.Validate())

	h, node := newForkHarness(t, cfg)
	report, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, deployments, report.Deployments)
	require.Len(t, report.Voters, 2)
	for i, name := range cfg.Voters {
		voter := report.Voters[i]
		assert.Equal(t, name, voter.Name)
		require.Len(t, voter.Outcomes, 5)

		call, _ := voter.Outcome(ensvotes.ScenarioCall)
		hook, _ := voter.Outcome(ensvotes.ScenarioHook)
		assert.Equal(t, votes[voters[name]], call.Value)
		assert.Equal(t, call.Value, hook.Value)

		wrongChain, _ := voter.Outcome(ensvotes.ScenarioHookWrongChain)
		assert.Equal(t, "ResolverError(bytes)", wrongChain.Err)
	}
	assert.Len(t, node.events, 14)
	assert.Contains(t, report.Table(), "ResolverError(bytes)")
}

func TestAttachMissingDeployment(t *testing.T) {
	h, _ := newForkHarness(t, ensvotes.DefaultConfig())

	err := h.Attach(map[string]common.Address{ensvotes.UniversalResolver: deployments[ensvotes.UniversalResolver]})
	assert.ErrorContains(t, err, "no deployment of HookVerifier")

	_, err = h.Test(context.Background(), "nick.eth")
	assert.ErrorIs(t, err, ensvotes.ErrNotSetup)
}

func TestOpenChainCachesNames(t *testing.T) {
	node := &forkNode{t: t}
	srv := httptest.NewServer(node)
	defer srv.Close()

	cfg := ensvotes.DefaultConfig()
	cfg.RPCURL = srv.URL
	cfg.ArtifactsDir = t.TempDir()

	ctx := context.Background()
	chain, err := ensvotes.OpenChain(ctx, cfg, nil, nil)
	require.NoError(t, err)
	defer chain.Shutdown()

	for i := 0; i < 3; i++ {
		address, ok, err := chain.Provider.ResolveName(ctx, "nick.eth")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, voters["nick.eth"], address)
	}
	assert.Equal(t, 1, node.lookups)
}
