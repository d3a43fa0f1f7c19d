package ethwallet

import (
	"fmt"

	"github.com/0xsequence/urkit/ethcoder"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RecoverAddress returns the signer of an EIP-191 personal message.
func RecoverAddress(message, signature []byte) (common.Address, error) {
	return RecoverAddressFromDigest(accounts.TextHash(message), signature)
}

func RecoverAddressFromDigest(digest, signature []byte) (common.Address, error) {
	if len(digest) != 32 {
		return common.Address{}, fmt.Errorf("digest is not of proper length (=32)")
	}
	if len(signature) != 65 {
		return common.Address{}, fmt.Errorf("signature is not of proper length (=65)")
	}

	sig := make([]byte, 65)
	copy(sig, signature)

	if sig[64] > 1 {
		sig[64] -= 27 // recovery ID
	}

	pubkey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pubkey), nil
}

// Validate the public key address of a signed message
func ValidateEthereumSignature(address string, message []byte, signatureHex string) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("address is not a valid Ethereum address")
	}
	if len(message) < 1 || len(signatureHex) < 1 {
		return false, fmt.Errorf("message and signature must not be empty")
	}
	sig, err := ethcoder.HexDecode(signatureHex)
	if err != nil {
		return false, fmt.Errorf("signature is an invalid hex string")
	}
	recovered, err := RecoverAddress(message, sig)
	if err != nil {
		return false, err
	}
	if recovered != common.HexToAddress(address) {
		return false, fmt.Errorf("invalid signature")
	}
	return true, nil
}
