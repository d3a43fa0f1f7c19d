package ethcoder

import "github.com/ethereum/go-ethereum/accounts/abi"

func MustNewType(str string) abi.Type {
	typ, err := abi.NewType(str, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
