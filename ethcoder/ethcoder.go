package ethcoder

import (
	"strings"
)

func BytesToBytes32(slice []byte) [32]byte {
	var bytes32 [32]byte
	copy(bytes32[:], slice)
	return bytes32
}

// PaddedAddress returns the 32-byte word of an address in hex, without the 0x prefix,
// as it's stored in a storage slot or abi encoded.
func PaddedAddress(input string) string {
	input = strings.TrimPrefix(input, "0x")
	if len(input) < 64 {
		input = strings.Repeat("0", 64-len(input)) + input
	}
	return input[0:64]
}
