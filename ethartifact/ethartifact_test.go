package ethartifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hookVerifierABI = `[{"type":"error","name":"InvalidHook","inputs":[{"name":"chainId","type":"uint256"}]}]`
	urABI           = `[
		{"type":"constructor","inputs":[{"name":"registry","type":"address"},{"name":"gateways","type":"string[]"}]},
		{"type":"function","name":"resolve","stateMutability":"view","inputs":[{"name":"name","type":"bytes"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"bytes"},{"name":"","type":"address"}]},
		{"type":"error","name":"ResolverNotFound","inputs":[{"name":"name","type":"bytes"}]}
	]`
	hookVerifierFQN = "src/HookVerifier.sol:HookVerifier"
)

var libAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// unlinked creation code: PUSH20 <HookVerifier> STOP
func unlinkedBytecode() string {
	return "0x73" + Placeholder(hookVerifierFQN) + "00"
}

func writeFoundryArtifact(t *testing.T, dir, source, name, abiJSON, bytecode string, linkRefs LinkReferences) string {
	var artifact FoundryRawArtifact
	artifact.ABI = json.RawMessage(abiJSON)
	artifact.Bytecode.Object = bytecode
	artifact.Bytecode.LinkReferences = linkRefs
	artifact.DeployedBytecode.Object = "0x00"
	artifact.Metadata.Settings.CompilationTarget = map[string]string{"src/" + source: name}

	data, err := json.Marshal(artifact)
	require.NoError(t, err)

	path := filepath.Join(dir, source, name+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeFoundryOut(t *testing.T) string {
	dir := t.TempDir()
	writeFoundryArtifact(t, dir, "HookVerifier.sol", "HookVerifier", hookVerifierABI, "0x6080", nil)
	writeFoundryArtifact(t, dir, "UR.sol", "UR", urABI, unlinkedBytecode(), LinkReferences{
		"src/HookVerifier.sol": {"HookVerifier": {{Start: 1, Length: 20}}},
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "build-info"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build-info", "abc.json"), []byte(`{}`), 0o644))
	return dir
}

func TestParseArtifactFile_Hardhat(t *testing.T) {
	hardhatPath := filepath.Join(t.TempDir(), "HookVerifier.json")
	raw := RawArtifact{
		ContractName:     "HookVerifier",
		ABI:              json.RawMessage(hookVerifierABI),
		Bytecode:         "0x6080",
		DeployedBytecode: "0x6080",
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(hardhatPath, data, 0o644))

	artifact, err := ParseArtifactFile(hardhatPath)
	if err != nil {
		t.Fatalf("ParseArtifactFile failed for Hardhat artifact: %v", err)
	}

	// Check contract name
	if artifact.ContractName != "HookVerifier" {
		t.Errorf("Expected contract name 'HookVerifier', got '%s'", artifact.ContractName)
	}

	// Check bytecode is not empty and has 0x prefix
	if !strings.HasPrefix(artifact.Bytecode, "0x") {
		t.Error("Expected bytecode to start with '0x'")
	}

	parsed, err := artifact.Artifact()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x80}, parsed.Bin)
	assert.Contains(t, parsed.ABI.Errors, "InvalidHook")
}

func TestParseArtifactFile_Foundry(t *testing.T) {
	dir := t.TempDir()
	foundryPath := writeFoundryArtifact(t, dir, "UR.sol", "UR", urABI, unlinkedBytecode(), nil)

	artifact, err := ParseArtifactFile(foundryPath)
	if err != nil {
		t.Fatalf("ParseArtifactFile failed for Foundry artifact: %v", err)
	}

	// Check contract name
	if artifact.ContractName != "UR" {
		t.Errorf("Expected contract name 'UR', got '%s'", artifact.ContractName)
	}

	// Check ABI is not empty
	if len(artifact.ABI) == 0 {
		t.Error("Expected ABI to be parsed, but it's empty")
	}
}

func TestLoadFoundryOutAndLink(t *testing.T) {
	registry, err := LoadFoundryOut(writeFoundryOut(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"HookVerifier", "UR"}, registry.ContractNames())

	hookVerifier := registry.MustGet("HookVerifier")
	assert.False(t, hookVerifier.NeedsLinking())
	assert.Equal(t, []byte{0x60, 0x80}, hookVerifier.Bin)

	ur := registry.MustGet("UR")
	assert.True(t, ur.NeedsLinking())
	assert.Nil(t, ur.Bin)
	assert.Equal(t, []string{"src/HookVerifier.sol:HookVerifier"}, ur.Libraries())

	_, err = ur.Link(nil)
	assert.Error(t, err)

	linked, err := ur.Link(map[string]common.Address{"HookVerifier": libAddress})
	require.NoError(t, err)
	assert.False(t, linked.NeedsLinking())
	assert.Equal(t, append(append([]byte{0x73}, libAddress.Bytes()...), 0x00), linked.Bin)

	// the registry copy is untouched
	assert.True(t, registry.MustGet("UR").NeedsLinking())
}

func TestLinkByPlaceholder(t *testing.T) {
	artifact := Artifact{ContractName: "UR", Bytecode: unlinkedBytecode()}

	_, err := artifact.Link(map[string]common.Address{"HookVerifier": libAddress})
	assert.Error(t, err)

	linked, err := artifact.Link(map[string]common.Address{hookVerifierFQN: libAddress})
	require.NoError(t, err)
	assert.Equal(t, 22, len(linked.Bin))
	assert.Equal(t, libAddress, common.BytesToAddress(linked.Bin[1:21]))
}

func TestMergeABI(t *testing.T) {
	registry, err := LoadFoundryOut(writeFoundryOut(t))
	require.NoError(t, err)

	ur := registry.MustGet("UR")
	merged := ur.MergeABI(registry.MustGet("HookVerifier").ABI)

	assert.Contains(t, merged.ABI.Errors, "InvalidHook")
	assert.Contains(t, merged.ABI.Errors, "ResolverNotFound")
	assert.Contains(t, merged.ABI.Methods, "resolve")
	assert.NotContains(t, ur.ABI.Errors, "InvalidHook")
}

func TestContractRegistryEncode(t *testing.T) {
	registry, err := LoadFoundryOut(writeFoundryOut(t))
	require.NoError(t, err)

	data, err := registry.Encode("UR", "resolve", []byte{0}, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, registry.MustGet("UR").ABI.Methods["resolve"].ID, data[:4])

	_, err = registry.Encode("Missing", "resolve")
	assert.Error(t, err)

	// re-adding keeps a single name
	require.NoError(t, registry.Add(registry.MustGet("UR")))
	assert.Equal(t, 2, registry.Len())
	assert.Len(t, registry.ContractNames(), 2)

	assert.Error(t, registry.Add(Artifact{}))
}
