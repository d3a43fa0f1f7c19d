package ensvotes_test

import (
	"strings"
	"testing"

	"github.com/0xsequence/urkit/ensvotes"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestReportTable(t *testing.T) {
	ur := common.HexToAddress("0xce01f8eee7E479C928F8919abD53E553a36CeF67")
	report := &ensvotes.Report{
		Basename:    "votes.eth",
		Deployments: map[string]common.Address{ensvotes.UniversalResolver: ur},
		Voters: []ensvotes.VoterReport{{
			Name:      "nick.eth",
			VoterName: "b8c2c29ee19d8307cb7255e1cd9cbde883a267d5.votes.eth",
			Outcomes: []ensvotes.Outcome{
				{Label: ensvotes.ScenarioCall, Value: "1000"},
				{Label: ensvotes.ScenarioHookWrongChain, Err: "ResolverError(bytes)"},
			},
		}},
	}

	voter := report.Voters[0]
	call, ok := voter.Outcome(ensvotes.ScenarioCall)
	assert.True(t, ok)
	assert.True(t, call.OK())

	_, ok = voter.Outcome(ensvotes.ScenarioHook)
	assert.False(t, ok)

	out := report.Table()
	assert.Contains(t, out, "ENS votes via votes.eth")
	assert.Contains(t, out, "deployed UR")
	assert.Contains(t, out, ur.Hex())
	assert.Contains(t, out, "error: ResolverError(bytes)")

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, ensvotes.ScenarioCall) && !strings.Contains(line, "wrong") {
			assert.Contains(t, line, "1000")
		}
	}
}
