package ensvotes

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Outcome of a single scenario. Err holds the failure in string form, Value
// the resolved text otherwise.
type Outcome struct {
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
	Err   string `json:"err,omitempty"`
}

func (o Outcome) OK() bool {
	return o.Err == ""
}

type VoterReport struct {
	Name      string    `json:"name"`
	VoterName string    `json:"voterName"`
	Calldata  string    `json:"calldata"`
	Hookdata  string    `json:"hookdata"`
	Outcomes  []Outcome `json:"outcomes"`
}

func (v VoterReport) Outcome(label string) (Outcome, bool) {
	for _, o := range v.Outcomes {
		if o.Label == label {
			return o, true
		}
	}
	return Outcome{}, false
}

type Report struct {
	Basename    string                    `json:"basename"`
	Deployments map[string]common.Address `json:"deployments"`
	Voters      []VoterReport             `json:"voters"`
}

// Table renders the deployments and every outcome.
func (r *Report) Table() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("ENS votes via " + r.Basename)

	names := make([]string, 0, len(r.Deployments))
	for name := range r.Deployments {
		names = append(names, name)
	}
	sort.Strings(names)

	t.AppendHeader(table.Row{"voter", "scenario", "result"})
	for _, name := range names {
		t.AppendRow(table.Row{"", "deployed " + name, r.Deployments[name].Hex()})
	}
	if len(names) > 0 {
		t.AppendSeparator()
	}

	for _, v := range r.Voters {
		for _, o := range v.Outcomes {
			result := o.Value
			if !o.OK() {
				result = "error: " + o.Err
			}
			t.AppendRow(table.Row{v.Name, o.Label, result})
		}
		t.AppendSeparator()
	}
	return t.Render()
}
