package ethcontract

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ParseABI parses a json abi, ie. the abi field of a forge artifact.
func ParseABI(abiJSON string) (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("unable to parse abi json: %w", err)
	}
	return parsed, nil
}

func MustParseABI(abiJSON string) abi.ABI {
	parsed, err := ParseABI(abiJSON)
	if err != nil {
		panic(err)
	}
	return parsed
}

// MustNewTupleType builds a tuple or tuple[] type, ie. the Response[] returned
// by the universal resolver or the requests of a batch gateway query.
func MustNewTupleType(str string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(str, "", components)
	if err != nil {
		panic(err)
	}
	return typ
}
