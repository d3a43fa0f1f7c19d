package ethtest

import (
	"fmt"
	"math/big"

	"github.com/0xsequence/urkit/ethwallet"
	"github.com/ethereum/go-ethereum/common"
)

func ETHValue(ether float64) *big.Int {
	x := big.NewInt(10)
	x.Exp(x, big.NewInt(15), nil)
	n := big.NewInt(int64(ether * 1000))
	return n.Mul(n, x)
}

// DummyAddr returns a random address
func DummyAddr() common.Address {
	wallet, _ := ethwallet.NewWalletFromRandomEntropy()
	return wallet.Address()
}

// DummyPrivateKey returns a private key in hex for seed, used with ethwallet
func DummyPrivateKey(seed uint64) string {
	return fmt.Sprintf("%064x", seed)
}
