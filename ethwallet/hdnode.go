package ethwallet

import (
	"crypto/ecdsa"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// DefaultBaseDerivationPath is m/44'/60'/0'/0/0, the path of the first dev
// account. Account i replaces the last index with i.
var DefaultBaseDerivationPath = accounts.DefaultBaseDerivationPath

const (
	EntropyBitSize12WordMnemonic = 128
	EntropyBitSize24WordMnemonic = 256
)

// DevMnemonic is the mnemonic anvil and hardhat fund their dev accounts from.
const DevMnemonic = "test test test test test test test test test test test junk"

// HDNode is a bip32 master key from a bip39 mnemonic, positioned at one
// derivation path.
type HDNode struct {
	mnemonic  string
	masterKey *hdkeychain.ExtendedKey

	path       accounts.DerivationPath
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func NewHDNodeFromMnemonic(mnemonic string, path *accounts.DerivationPath) (*HDNode, error) {
	if _, err := MnemonicToEntropy(mnemonic); err != nil {
		return nil, errors.Wrap(err, "invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, errors.Wrap(err, "invalid mnemonic")
	}
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, errors.Wrap(err, "master key")
	}

	h := &HDNode{mnemonic: mnemonic, masterKey: masterKey}
	derivationPath := DefaultBaseDerivationPath
	if path != nil {
		derivationPath = *path
	}
	if err := h.DerivePath(derivationPath); err != nil {
		return nil, err
	}
	return h, nil
}

// NewHDNodeFromRandomEntropy creates a node from a fresh mnemonic of bitSize
// bits of entropy, 128 when bitSize is 0.
func NewHDNodeFromRandomEntropy(bitSize int, path *accounts.DerivationPath) (*HDNode, error) {
	if bitSize == 0 {
		bitSize = EntropyBitSize12WordMnemonic
	}
	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return nil, err
	}
	mnemonic, err := EntropyToMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return NewHDNodeFromMnemonic(mnemonic, path)
}

func MnemonicToEntropy(mnemonic string) ([]byte, error) {
	if mnemonic == "" {
		return nil, errors.New("mnemonic is required")
	}
	return bip39.MnemonicToByteArray(mnemonic, true)
}

func EntropyToMnemonic(entropy []byte) (string, error) {
	return bip39.NewMnemonic(entropy)
}

func (h *HDNode) Mnemonic() string {
	return h.mnemonic
}

func (h *HDNode) DerivationPath() accounts.DerivationPath {
	return h.path
}

func (h *HDNode) Address() common.Address {
	return h.address
}

func (h *HDNode) PrivateKey() *ecdsa.PrivateKey {
	return h.privateKey
}

func (h *HDNode) PublicKey() *ecdsa.PublicKey {
	return &h.privateKey.PublicKey
}

func (h *HDNode) DerivePathFromString(path string) error {
	derivationPath, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return err
	}
	return h.DerivePath(derivationPath)
}

func (h *HDNode) DerivePath(path accounts.DerivationPath) error {
	key := h.masterKey
	for _, n := range path {
		var err error
		key, err = key.Derive(n)
		if err != nil {
			return errors.Wrapf(err, "derive %s", path)
		}
	}
	privateKey, err := key.ECPrivKey()
	if err != nil {
		return errors.Wrapf(err, "derive %s", path)
	}

	h.path = path
	h.privateKey = privateKey.ToECDSA()
	h.address = crypto.PubkeyToAddress(h.privateKey.PublicKey)
	return nil
}

// DeriveAccountIndex moves the node to the account at index, keeping the rest
// of its path.
func (h *HDNode) DeriveAccountIndex(index uint32) error {
	if len(h.path) < 4 {
		return errors.Errorf("invalid account derivation path %s", h.path)
	}
	path := make(accounts.DerivationPath, len(h.path))
	copy(path, h.path)
	path[len(path)-1] = index
	return h.DerivePath(path)
}
