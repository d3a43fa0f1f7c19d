package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execCmd(cmd *cobra.Command, args string) (string, error) {
	actual := new(bytes.Buffer)
	cmd.SetOut(actual)
	cmd.SetErr(actual)
	cmd.SetArgs(strings.Fields(args))
	if err := cmd.Execute(); err != nil {
		return "", err
	}
	return actual.String(), nil
}

func Test_NamehashCmd(t *testing.T) {
	res, err := execCmd(NewNamehashCmd(), "votes.eth")
	require.NoError(t, err)
	assert.Equal(t, "0x3397ba30c70a687ee713b7dc25583279eaf119075a9aa5964126756ba959b4b3\n", res)

	_, err = execCmd(NewNamehashCmd(), "votes..eth")
	assert.Error(t, err)
}

func Test_LabelhashCmd(t *testing.T) {
	res, err := execCmd(NewLabelhashCmd(), "eth")
	require.NoError(t, err)
	assert.Equal(t, "0x4f5b812789fc606be1b3b16908db13fc7a9adf7ca72641f84d75b47069d3d7f0\n", res)

	_, err = execCmd(NewLabelhashCmd(), "votes.eth")
	assert.ErrorContains(t, err, "separator")
}

func Test_DNSEncodeCmd(t *testing.T) {
	res, err := execCmd(NewDNSEncodeCmd(), "votes.eth")
	require.NoError(t, err)
	assert.Equal(t, "0x05766f74657303657468"+"00\n", res)

	res, err = execCmd(NewDNSEncodeCmd(), "0x0576"+"6f7465730365746800 --decode")
	require.NoError(t, err)
	assert.Equal(t, "votes.eth\n", res)
}

func Test_SlotCmd(t *testing.T) {
	res, err := execCmd(NewSlotCmd(), "votes.eth --json")
	require.NoError(t, err)
	assert.Contains(t, res, `"recordSlot": "0xdb368443fd6c623d055870b850bcf1427b5ec322918a8a5624dafcad5bd82fa0"`)
	assert.Contains(t, res, `"resolverSlot": "0xdb368443fd6c623d055870b850bcf1427b5ec322918a8a5624dafcad5bd82fa1"`)

	res, err = execCmd(NewSlotCmd(), "votes.eth")
	require.NoError(t, err)
	assert.Contains(t, res, "0x3397ba30c70a687ee713b7dc25583279eaf119075a9aa5964126756ba959b4b3")
}

func Test_HijackCmd_InvalidArgs(t *testing.T) {
	_, err := execCmd(NewHijackCmd(), "votes.eth 0x1234")
	assert.ErrorContains(t, err, "valid resolver address")

	_, err = execCmd(NewHijackCmd(), "votes.eth 0xce01f8eee7E479C928F8919abD53E553a36CeF67 --rpc-url localhost")
	assert.ErrorContains(t, err, "valid rpc url")

	_, err = execCmd(NewHijackCmd(), "votes.eth 0xce01f8eee7E479C928F8919abD53E553a36CeF67 --registry 0x12")
	assert.ErrorContains(t, err, "valid registry address")
}

func Test_HookCmd(t *testing.T) {
	calldata := "0x59d1d43c" + strings.Repeat("00", 32)
	resolver := "0xce01f8eee7E479C928F8919abD53E553a36CeF67"

	res, err := execCmd(NewHookCmd(), "--calldata "+calldata+" --resolver "+resolver+" --chain-id 2")
	require.NoError(t, err)
	data := strings.TrimSpace(res)
	assert.True(t, strings.HasPrefix(data, "0x8d74c3e9"), data)

	res, err = execCmd(NewHookCmd(), "--decode "+data+" --json")
	require.NoError(t, err)
	assert.Contains(t, res, `"calldata": "`+calldata+`"`)
	assert.Contains(t, strings.ToLower(res), strings.ToLower(`"resolver": "`+resolver+`"`))
	assert.Contains(t, res, `"chainId": "2"`)

	_, err = execCmd(NewHookCmd(), "--decode "+calldata)
	assert.ErrorContains(t, err, "not a hook")

	_, err = execCmd(NewHookCmd(), "--calldata "+calldata+" --resolver nope")
	assert.ErrorContains(t, err, "valid resolver address")
}

func Test_ResolveCmd_InvalidArgs(t *testing.T) {
	_, err := execCmd(NewResolveCmd(), "votes.eth --rpc-url http://localhost:8545")
	assert.ErrorContains(t, err, "universal resolver address")

	_, err = execCmd(NewResolveCmd(), "votes.eth --ur 0xce01f8eee7E479C928F8919abD53E553a36CeF67")
	assert.ErrorContains(t, err, "valid rpc url")
}

func Test_VotesCmd_InvalidConfig(t *testing.T) {
	t.Setenv("URKIT_FORK_URL", "")

	_, err := execCmd(NewVotesCmd(), "--fork-url not-a-url")
	assert.ErrorContains(t, err, "invalid config")

	_, err = execCmd(NewVotesCmd(), "--names= --fork-url http://localhost:8545")
	assert.ErrorContains(t, err, "invalid config")

	_, err = execCmd(NewVotesCmd(), "--config does-not-exist.toml")
	assert.ErrorContains(t, err, "does-not-exist.toml")
}

func Test_ParseLogLevel(t *testing.T) {
	level, err := parseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())

	_, err = parseLogLevel("loud")
	assert.Error(t, err)
}

func Test_Version(t *testing.T) {
	GITBRANCH = "master"
	assert.Equal(t, "dev (commit:last commit last change)", version())
}
