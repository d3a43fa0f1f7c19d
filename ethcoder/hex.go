package ethcoder

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

func HexEncode(h []byte) string {
	return hexutil.Encode(h)
}

func HexDecode(h string) ([]byte, error) {
	return hexutil.Decode(h)
}

func MustHexDecode(h string) []byte {
	b, err := HexDecode(h)
	if err != nil {
		panic(fmt.Errorf("ethcoder: must hex decode but failed due to, %v", err))
	}
	return b
}
