package ethartifact

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Placeholder is the solc library placeholder of a fully qualified library
// name, ie. "src/HookVerifier.sol:HookVerifier".
func Placeholder(fullyQualifiedName string) string {
	h := crypto.Keccak256Hash([]byte(fullyQualifiedName)).Hex()
	return "__$" + h[2:36] + "$__"
}

func hasPlaceholders(bytecode string) bool {
	return strings.Contains(bytecode, "__")
}

// NeedsLinking reports whether the creation code references libraries which
// are not linked yet.
func (a Artifact) NeedsLinking() bool {
	return hasPlaceholders(a.Bytecode)
}

// Libraries lists the libraries referenced by the artifact as "file:name".
func (a Artifact) Libraries() []string {
	names := []string{}
	for file, libs := range a.LinkReferences {
		for name := range libs {
			names = append(names, file+":"+name)
		}
	}
	sort.Strings(names)
	return names
}

// Link returns a copy of the artifact with library addresses written into the
// creation code. Libraries are keyed by name or by "file:name".
func (a Artifact) Link(libs map[string]common.Address) (Artifact, error) {
	if !a.NeedsLinking() {
		return a, nil
	}

	code := []byte(strings.TrimPrefix(a.Bytecode, "0x"))

	for file, refs := range a.LinkReferences {
		for name, offsets := range refs {
			addr, ok := libs[file+":"+name]
			if !ok {
				addr, ok = libs[name]
			}
			if !ok {
				return Artifact{}, fmt.Errorf("ethartifact: %s references library %s:%s which is not provided", a.ContractName, file, name)
			}
			hexAddr := strings.ToLower(addr.Hex()[2:])
			for _, ref := range offsets {
				start, end := ref.Start*2, (ref.Start+ref.Length)*2
				if ref.Length != common.AddressLength || end > len(code) {
					return Artifact{}, fmt.Errorf("ethartifact: invalid link reference %s:%s at %d", file, name, ref.Start)
				}
				copy(code[start:end], hexAddr)
			}
		}
	}

	// artifacts without linkReferences still carry the placeholders
	for name, addr := range libs {
		if !strings.Contains(name, ":") {
			continue
		}
		code = []byte(strings.ReplaceAll(string(code), Placeholder(name), strings.ToLower(addr.Hex()[2:])))
	}

	linked := "0x" + string(code)
	if hasPlaceholders(linked) {
		return Artifact{}, fmt.Errorf("ethartifact: %s has unlinked libraries", a.ContractName)
	}

	out := a
	out.Bytecode = linked
	out.Bin = common.FromHex(linked)
	return out, nil
}

// MergeABI returns a copy of the artifact whose abi also knows the methods,
// events and errors of others. Entries of the artifact itself win.
func (a Artifact) MergeABI(others ...abi.ABI) Artifact {
	merged := a.ABI
	merged.Methods = maps.Clone(a.ABI.Methods)
	merged.Events = maps.Clone(a.ABI.Events)
	merged.Errors = maps.Clone(a.ABI.Errors)
	if merged.Methods == nil {
		merged.Methods = map[string]abi.Method{}
	}
	if merged.Events == nil {
		merged.Events = map[string]abi.Event{}
	}
	if merged.Errors == nil {
		merged.Errors = map[string]abi.Error{}
	}

	for _, other := range others {
		for k, v := range other.Methods {
			if _, ok := merged.Methods[k]; !ok {
				merged.Methods[k] = v
			}
		}
		for k, v := range other.Events {
			if _, ok := merged.Events[k]; !ok {
				merged.Events[k] = v
			}
		}
		for k, v := range other.Errors {
			if _, ok := merged.Errors[k]; !ok {
				merged.Errors[k] = v
			}
		}
	}

	out := a
	out.ABI = merged
	return out
}
