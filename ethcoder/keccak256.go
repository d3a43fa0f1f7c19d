package ethcoder

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

func Keccak256Hash(input []byte) common.Hash {
	return common.BytesToHash(Keccak256(input))
}

func Keccak256(input []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(input)
	return hasher.Sum(nil)
}

// FunctionSelector returns the 4-byte selector of a canonical signature,
// ie. FunctionSelector("text(bytes32,string)") == 0x59d1d43c
func FunctionSelector(signature string) [4]byte {
	var selector [4]byte
	copy(selector[:], Keccak256([]byte(signature)))
	return selector
}

func FunctionSignature(functionExpr string) string {
	return HexEncode(Keccak256([]byte(functionExpr))[0:4])
}
