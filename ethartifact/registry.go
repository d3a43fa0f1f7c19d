package ethartifact

import (
	"fmt"
	"sort"
)

// ContractRegistry holds artifacts by contract name, ie. the contracts of a
// forge out/ directory deployable by name.
type ContractRegistry struct {
	contracts map[string]Artifact
}

func NewContractRegistry() *ContractRegistry {
	return &ContractRegistry{contracts: map[string]Artifact{}}
}

// Add registers artifact under its contract name, replacing any previous one.
func (c *ContractRegistry) Add(artifact Artifact) error {
	if artifact.ContractName == "" {
		return fmt.Errorf("ethartifact: unable to register contract with empty name")
	}
	if c.contracts == nil {
		c.contracts = map[string]Artifact{}
	}
	c.contracts[artifact.ContractName] = artifact
	return nil
}

func (c *ContractRegistry) Get(name string) (Artifact, bool) {
	artifact, ok := c.contracts[name]
	return artifact, ok
}

func (c *ContractRegistry) MustGet(name string) Artifact {
	artifact, ok := c.Get(name)
	if !ok {
		panic(fmt.Sprintf("ethartifact: ContractRegistry#MustGet failed to get '%s'", name))
	}
	return artifact
}

// ContractNames returns the registered names, sorted.
func (c *ContractRegistry) ContractNames() []string {
	names := make([]string, 0, len(c.contracts))
	for name := range c.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *ContractRegistry) Len() int {
	return len(c.contracts)
}

// Encode packs calldata for method of the named contract.
func (c *ContractRegistry) Encode(contractName, method string, args ...interface{}) ([]byte, error) {
	artifact, ok := c.Get(contractName)
	if !ok {
		return nil, fmt.Errorf("ethartifact: contract registry cannot find contract %s", contractName)
	}
	return artifact.ABI.Pack(method, args...)
}
